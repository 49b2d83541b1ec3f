package controllers

import (
	"newsdigest/config"
	"newsdigest/internal/repositories"
	"newsdigest/internal/services"

	digestController "newsdigest/internal/controllers/digests"
)

type Controllers struct {
	Digest digestController.DigestControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
) Controllers {
	return Controllers{
		Digest: digestController.New(repos, services, config),
	}
}

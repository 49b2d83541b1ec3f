package repositories

import (
	"newsdigest/internal/database"
)

type Repository struct {
	User     UserRepository
	Interest InterestRepository
	Digest   DigestRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:     NewUserRepository(db),
		Interest: NewInterestRepository(db),
		Digest:   NewDigestRepository(db),
	}
}

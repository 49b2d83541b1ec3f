package services

import (
	"newsdigest/config"
	"newsdigest/internal/database"
	"newsdigest/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
)

type Service struct {
	Scheduler   *SchedulerService
	Headlines   *HeadlineFetcherService
	Composer    *ComposerService
	Summarizer  *SummarizerService
	Digest      *DigestService
	Eligibility *EligibilityService
}

func New(db database.DB, config config.Config, repos repositories.Repository) (Service, error) {
	log := logger.New("services").Function("New")

	if config.NewsProvider == NEWSAPI_PROVIDER && config.NewsAPIKey == "" {
		log.Warn("NEWSAPI_KEY is not set, headline fetches will be rejected")
	}
	if config.LLMProvider == OPENAI_PROVIDER && config.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, digest generation will fail")
	}
	if config.LLMProvider == ANTHROPIC_PROVIDER && config.AnthropicAPIKey == "" {
		log.Warn("ANTHROPIC_API_KEY is not set, digest generation will fail")
	}

	schedulerService := NewSchedulerService(config)
	headlineFetcherService := NewHeadlineFetcherService(
		config,
		NewNewsProvider(config),
		NewHeadlineCache(db.Cache.ClientAPI),
	)
	composerService := NewComposerService(config)
	summarizerService := NewSummarizerService(config, NewLLMProvider(config))
	digestService := NewDigestService(
		config,
		repos.Digest,
		headlineFetcherService,
		composerService,
		summarizerService,
	)
	eligibilityService := NewEligibilityService(repos.User, repos.Digest)

	return Service{
		Scheduler:   schedulerService,
		Headlines:   headlineFetcherService,
		Composer:    composerService,
		Summarizer:  summarizerService,
		Digest:      digestService,
		Eligibility: eligibilityService,
	}, nil
}

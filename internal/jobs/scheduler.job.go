package jobs

import (
	"newsdigest/config"
	"newsdigest/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	log.Info("Registering jobs")

	digestGenerationJob := NewDigestGenerationJob(
		config,
		services.Eligibility,
		services.Digest,
	)
	if err := schedulerService.AddJob(digestGenerationJob); err != nil {
		return log.Err("failed to register digest generation job", err)
	}
	log.Info(
		"Registered digest generation job",
		"interval", config.DigestCheckInterval().String(),
	)

	return nil
}

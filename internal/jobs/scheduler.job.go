package jobs

import (
	"martinspocos/config"
	"martinspocos/internal/database"
	"martinspocos/internal/events"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	repos repositories.Repository,
	eventBus events.Publisher,
	db database.DB,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	reminderJob := NewSignatureReminderJob(
		repos.Contract,
		eventBus,
		db,
		config.SignatureReminderDays,
		services.DailyMorning,
	)
	if err := schedulerService.AddJob(reminderJob); err != nil {
		return log.Err("failed to register signature reminder job", err)
	}
	log.Info("Registered signature reminder job", "schedule", "daily 09:00 UTC")

	return nil
}

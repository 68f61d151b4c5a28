package jobs

import (
	"context"
	"time"

	"martinspocos/internal/database"
	"martinspocos/internal/events"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// SignatureReminderJob announces contracts that have waited on a signature
// for longer than the configured number of days.
type SignatureReminderJob struct {
	contractRepo repositories.ContractRepository
	events       events.Publisher
	db           database.DB
	after        time.Duration
	schedule     services.Schedule
	now          func() time.Time
	log          logger.Logger
}

func NewSignatureReminderJob(
	contractRepo repositories.ContractRepository,
	eventBus events.Publisher,
	db database.DB,
	days int,
	schedule services.Schedule,
) *SignatureReminderJob {
	if days < 1 {
		days = 1
	}

	return &SignatureReminderJob{
		contractRepo: contractRepo,
		events:       eventBus,
		db:           db,
		after:        time.Duration(days) * 24 * time.Hour,
		schedule:     schedule,
		now:          time.Now,
		log:          logger.New("signatureReminderJob"),
	}
}

func (j *SignatureReminderJob) Name() string {
	return "SignatureReminder"
}

func (j *SignatureReminderJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *SignatureReminderJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	cutoff := j.now().UTC().Add(-j.after)
	contracts, err := j.contractRepo.ListAwaitingSignature(ctx, j.db.SQL, cutoff)
	if err != nil {
		return log.Err("failed to list contracts awaiting signature", err)
	}

	for _, contract := range contracts {
		missing := string(SignerClient)
		switch contract.Status {
		case ContractStatusSignedClient:
			missing = string(SignerSupervisor)
		case ContractStatusApproved:
			missing = "both"
		}

		events.Notify(j.events, log, events.CONTRACT_SIGNATURE_REMINDER, map[string]any{
			"contractId":     contract.ID,
			"contractNumber": contract.ContractNumber,
			"status":         contract.Status,
			"awaiting":       missing,
			"since":          contract.UpdatedAt,
		})
	}

	log.Info("Signature reminders sent", "count", len(contracts), "cutoff", cutoff)
	return nil
}

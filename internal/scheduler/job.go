package scheduler

import (
	"context"
	"fmt"

	"github.com/angelmondragon/crewtext-backend/internal/reminders"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

// Job is the unit of work a Scheduler runs each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type reminderProcessor interface {
	ProcessScheduledReminders(ctx context.Context) ([]reminders.ReminderResult, error)
}

// ReminderJob runs one reminder batch. Individual send failures are part of
// the batch result; only a failed fetch counts as a job failure and is retried.
type ReminderJob struct {
	service reminderProcessor
	logg    *logger.Logger
}

func NewReminderJob(service reminderProcessor, logg *logger.Logger) *ReminderJob {
	if logg == nil {
		logg = logger.Nop()
	}
	return &ReminderJob{service: service, logg: logg}
}

func (j *ReminderJob) Name() string { return "reminders" }

func (j *ReminderJob) Run(ctx context.Context) error {
	if j.service == nil {
		return fmt.Errorf("reminder service not configured")
	}
	results, err := j.service.ProcessScheduledReminders(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, result := range results {
		if !result.Success {
			failed++
		}
	}
	if failed > 0 {
		ctx = j.logg.WithFields(ctx, map[string]any{"total": len(results), "failed": failed})
		j.logg.Warn(ctx, "reminder batch finished with failed sends")
	}
	return nil
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	logg *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logg.Debug(c.withKV(keysAndValues), "cron: "+msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.logg.Error(c.withKV(keysAndValues), "cron: "+msg, err)
}

func (c cronLogger) withKV(keysAndValues []any) context.Context {
	ctx := context.Background()
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	if len(fields) == 0 {
		return ctx
	}
	return c.logg.WithFields(ctx, fields)
}

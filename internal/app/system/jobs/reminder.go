// internal/app/system/jobs/reminder.go
package jobs

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.uber.org/zap"
)

// ReminderJobName names the daily due-date reminder.
const ReminderJobName = "task-reminder"

// DueTaskFinder lists non-completed tasks due in (from, to].
type DueTaskFinder interface {
	DueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)
}

// Notifier enqueues notifications.
type Notifier interface {
	Notify(notices ...dispatch.Notice)
}

// TaskReminderJob sends one task-reminder notification to the assignee of
// every open task due within the next 24 hours.
func TaskReminderJob(hour int, tasks DueTaskFinder, notifier Notifier, logger *zap.Logger, now func() time.Time) Job {
	return Job{
		Name:    ReminderJobName,
		Spec:    DailyAt(hour),
		Timeout: 2 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := SendReminders(ctx, tasks, notifier, now())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("queued task reminders", zap.Int("count", n))
			}
			return nil
		},
	}
}

// SendReminders queues reminders for tasks due in (now, now+24h] and
// returns how many were queued.
func SendReminders(ctx context.Context, tasks DueTaskFinder, notifier Notifier, now time.Time) (int, error) {
	due, err := tasks.DueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	notices := make([]dispatch.Notice, 0, len(due))
	for _, t := range due {
		if t.AssignedTo.IsZero() || t.DueDate == nil {
			continue
		}
		notices = append(notices, dispatch.Notice{
			Recipient: t.AssignedTo,
			Kind:      models.KindTaskReminder,
			Message:   "Task \"" + t.Title + "\" is due " + t.DueDate.UTC().Format("Jan 2 15:04 MST"),
			Link:      "/tasks/" + t.ID.Hex(),
			Related:   models.EntityRef{Type: models.EntityTask, ID: t.ID},
		})
	}
	notifier.Notify(notices...)
	return len(notices), nil
}

// Package reminders delivers treatment check reminders while the app runs.
package reminders

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

var ErrNoDueDate = errors.New("reminder has no due date")

// Scheduler fires each reminder once at its due time. Reminders already past
// due fire immediately.
type Scheduler struct {
	notifier ports.Notifier
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

func NewScheduler(notifier ports.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

func (s *Scheduler) Schedule(ctx context.Context, reminder domain.Reminder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reminder.Due.IsZero() {
		return "", ErrNoDueDate
	}

	id := uuid.NewString()
	delay := reminder.Due.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errors.New("scheduler is closed")
	}
	s.pending[id] = time.AfterFunc(delay, func() { s.fire(id, reminder) })
	s.logger.Debug("treatment reminder scheduled", "id", id, "treatment", reminder.TreatmentID, "due", reminder.Due)
	return id, nil
}

// Cancel drops a pending reminder. Unknown or fired IDs are ignored.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.pending[id]; ok {
		timer.Stop()
		delete(s.pending, id)
	}
}

// Pending reports how many reminders have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending reminder.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
	s.closed = true
}

func (s *Scheduler) fire(id string, reminder domain.Reminder) {
	s.mu.Lock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	s.logger.Info("treatment reminder due", "id", id, "hive", reminder.HiveName, "product", reminder.Product)
	if s.notifier != nil {
		s.notifier.ReminderDue(reminder.Notification(id))
	}
}

var _ ports.NotificationScheduler = (*Scheduler)(nil)

package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beespeak/internal/domain"
)

type chanNotifier chan domain.Notification

func (c chanNotifier) ReminderDue(n domain.Notification) { c <- n }

func TestSchedulerFiresPastDueImmediately(t *testing.T) {
	t.Parallel()

	notified := make(chanNotifier, 1)
	s := NewScheduler(notified, nil)
	defer s.Close()

	id, err := s.Schedule(context.Background(), domain.Reminder{
		HiveName: "Hive 3",
		Product:  "Apivar",
		Due:      time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	select {
	case n := <-notified:
		assert.Equal(t, id, n.ID)
		assert.Equal(t, domain.ReminderTitle, n.Title)
		assert.Equal(t, "Time to check treatment for Hive 3: Apivar", n.Body)
	case <-time.After(5 * time.Second):
		t.Fatal("reminder did not fire")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSchedulerFiresAtDueTime(t *testing.T) {
	t.Parallel()

	notified := make(chanNotifier, 1)
	s := NewScheduler(notified, nil)
	defer s.Close()

	_, err := s.Schedule(context.Background(), domain.Reminder{HiveName: "h", Product: "p", Due: time.Now().Add(50 * time.Millisecond)})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Pending())

	select {
	case <-notified:
	case <-time.After(5 * time.Second):
		t.Fatal("reminder did not fire")
	}
}

func TestSchedulerCancel(t *testing.T) {
	t.Parallel()

	notified := make(chanNotifier, 1)
	s := NewScheduler(notified, nil)
	defer s.Close()

	id, err := s.Schedule(context.Background(), domain.Reminder{Due: time.Now().Add(100 * time.Millisecond)})
	require.NoError(t, err)
	s.Cancel(id)
	s.Cancel("unknown")
	assert.Equal(t, 0, s.Pending())

	select {
	case n := <-notified:
		t.Fatalf("cancelled reminder fired: %+v", n)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSchedulerRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil)

	_, err := s.Schedule(context.Background(), domain.Reminder{})
	assert.ErrorIs(t, err, ErrNoDueDate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Schedule(ctx, domain.Reminder{Due: time.Now()})
	assert.ErrorIs(t, err, context.Canceled)

	s.Close()
	_, err = s.Schedule(context.Background(), domain.Reminder{Due: time.Now().Add(time.Hour)})
	assert.Error(t, err)
}

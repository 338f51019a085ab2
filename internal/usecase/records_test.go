package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beespeak/internal/domain"
	"beespeak/internal/storage/memory"
)

func newRecordsFixture(t *testing.T) (*RecordsService, *fakeScheduler, domain.Hive) {
	t.Helper()

	scheduler := &fakeScheduler{}
	service := NewRecordsService(memory.New(), scheduler, nil)
	service.now = func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }

	apiary, err := service.CreateApiary(context.Background(), domain.Apiary{Name: "Home"})
	require.NoError(t, err)
	hive, err := service.CreateHive(context.Background(), domain.Hive{ApiaryID: apiary.ID, Name: "Hive 1"})
	require.NoError(t, err)
	return service, scheduler, hive
}

func TestRecordsServiceCreateHiveDefaults(t *testing.T) {
	t.Parallel()

	service, _, hive := newRecordsFixture(t)

	assert.Equal(t, hive.ID.String(), hive.QRString)
	assert.Equal(t, domain.DefaultHiveType, hive.Type)

	found, err := service.HiveByQR(context.Background(), "  "+hive.ID.String()+" ")
	require.NoError(t, err)
	assert.Equal(t, hive.ID, found.ID)

	_, err = service.HiveByQR(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrHiveNotFound)
}

func TestRecordsServiceValidation(t *testing.T) {
	t.Parallel()

	service, _, hive := newRecordsFixture(t)
	ctx := context.Background()

	_, err := service.CreateApiary(ctx, domain.Apiary{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = service.CreateHive(ctx, domain.Hive{ApiaryID: uuid.New(), Name: "Orphan"})
	assert.ErrorIs(t, err, domain.ErrApiaryNotFound)
	_, err = service.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID})
	assert.ErrorIs(t, err, ErrProductRequired)
	_, err = service.AddHarvest(ctx, domain.Harvest{HiveID: hive.ID, WeightKg: -1})
	assert.ErrorIs(t, err, ErrNegativeWeight)

	dup := domain.Hive{ApiaryID: hive.ApiaryID, Name: "Twin", QRString: hive.QRString}
	_, err = service.CreateHive(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateQR)
}

func TestRecordsServiceUpdateHiveKeepsOwnership(t *testing.T) {
	t.Parallel()

	service, _, hive := newRecordsFixture(t)

	updated, err := service.UpdateHive(context.Background(), domain.Hive{ID: hive.ID, ApiaryID: uuid.New(), Name: "Queenie"})
	require.NoError(t, err)
	assert.Equal(t, hive.ApiaryID, updated.ApiaryID)
	assert.Equal(t, hive.QRString, updated.QRString)
	assert.Equal(t, hive.Type, updated.Type)
	assert.Equal(t, "Queenie", updated.Name)
}

func TestRecordsServiceTreatmentSchedulesReminder(t *testing.T) {
	t.Parallel()

	service, scheduler, hive := newRecordsFixture(t)
	due := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)

	treatment, err := service.AddTreatment(context.Background(), domain.Treatment{
		HiveID:        hive.ID,
		Product:       " Apivar ",
		NextCheckDate: &due,
	})
	require.NoError(t, err)
	require.NotNil(t, treatment.NotificationID)
	assert.Equal(t, "Apivar", treatment.Product)

	reminders := scheduler.snapshotScheduled()
	require.Len(t, reminders, 1)
	assert.Equal(t, "Hive 1", reminders[0].HiveName)
	assert.Equal(t, "Apivar", reminders[0].Product)
	assert.Equal(t, due, reminders[0].Due)
	assert.Equal(t, "Time to check treatment for Hive 1: Apivar", reminders[0].Notification("n").Body)
}

func TestRecordsServiceScheduleFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	service, scheduler, hive := newRecordsFixture(t)
	scheduler.err = errors.New("denied")
	due := time.Now().Add(time.Hour)

	treatment, err := service.AddTreatment(context.Background(), domain.Treatment{HiveID: hive.ID, Product: "Oxalic", NextCheckDate: &due})
	require.NoError(t, err)
	assert.Nil(t, treatment.NotificationID)

	stored, err := service.GetTreatment(context.Background(), treatment.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.NotificationID)
}

func TestRecordsServiceUpdateTreatmentReschedules(t *testing.T) {
	t.Parallel()

	service, scheduler, hive := newRecordsFixture(t)
	ctx := context.Background()
	due := time.Now().Add(24 * time.Hour)

	treatment, err := service.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID, Product: "Oxalic", NextCheckDate: &due})
	require.NoError(t, err)
	firstID := *treatment.NotificationID

	treatment.NextCheckDate = nil
	updated, err := service.UpdateTreatment(ctx, treatment)
	require.NoError(t, err)
	assert.Nil(t, updated.NotificationID)
	assert.Equal(t, []string{firstID}, scheduler.snapshotCancelled())

	_, err = service.ScheduleReminder(ctx, treatment.ID)
	assert.ErrorIs(t, err, ErrNoCheckDate)

	later := due.Add(48 * time.Hour)
	updated.NextCheckDate = &later
	updated, err = service.UpdateTreatment(ctx, updated)
	require.NoError(t, err)
	require.NotNil(t, updated.NotificationID)

	id, err := service.ScheduleReminder(ctx, treatment.ID)
	require.NoError(t, err)
	stored, err := service.GetTreatment(ctx, treatment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NotificationID)
	assert.Equal(t, id, *stored.NotificationID)
	assert.Contains(t, scheduler.snapshotCancelled(), *updated.NotificationID)
}

func TestRecordsServiceScheduleReminderWithoutScheduler(t *testing.T) {
	t.Parallel()

	service := NewRecordsService(memory.New(), nil, nil)
	ctx := context.Background()
	apiary, err := service.CreateApiary(ctx, domain.Apiary{Name: "Home"})
	require.NoError(t, err)
	hive, err := service.CreateHive(ctx, domain.Hive{ApiaryID: apiary.ID, Name: "Hive"})
	require.NoError(t, err)
	due := time.Now().Add(time.Hour)
	treatment, err := service.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID, Product: "Thymol", NextCheckDate: &due})
	require.NoError(t, err)

	_, err = service.ScheduleReminder(ctx, treatment.ID)
	assert.ErrorIs(t, err, ErrRemindersDisabled)
}

func TestRecordsServiceRestoreRemindersAfterRestart(t *testing.T) {
	t.Parallel()

	service, scheduler, hive := newRecordsFixture(t)
	ctx := context.Background()
	now := service.now()

	// Treatments as a previous run left them, with that run's notification IDs.
	store := func(product string, next *time.Time, notification string) domain.Treatment {
		t.Helper()
		treatment := domain.Treatment{ID: uuid.New(), HiveID: hive.ID, Date: now.AddDate(0, 0, -7), Product: product, NextCheckDate: next, NotificationID: &notification}
		require.NoError(t, service.store.CreateTreatment(ctx, treatment))
		return treatment
	}
	future := now.AddDate(0, 0, 14)
	past := now.AddDate(0, 0, -1)
	upcoming := store("Apivar", &future, "old-upcoming")
	overdue := store("Oxalic", &past, "old-overdue")
	undated := store("Sugar dusting", nil, "old-undated")

	restored, err := service.RestoreReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	reminders := scheduler.snapshotScheduled()
	require.Len(t, reminders, 1)
	assert.Equal(t, upcoming.ID, reminders[0].TreatmentID)
	assert.Equal(t, "Hive 1", reminders[0].HiveName)
	assert.Equal(t, future, reminders[0].Due)

	got, err := service.GetTreatment(ctx, upcoming.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NotificationID)
	assert.Equal(t, "reminder-1", *got.NotificationID)

	for _, untouched := range []domain.Treatment{overdue, undated} {
		got, err := service.GetTreatment(ctx, untouched.ID)
		require.NoError(t, err)
		assert.Equal(t, *untouched.NotificationID, *got.NotificationID)
	}
}

func TestRecordsServiceRestoreRemindersSkipsFailures(t *testing.T) {
	t.Parallel()

	service, scheduler, hive := newRecordsFixture(t)
	ctx := context.Background()
	due := service.now().AddDate(0, 0, 3)
	treatment, err := service.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID, Product: "Formic", NextCheckDate: &due})
	require.NoError(t, err)

	scheduler.err = errors.New("denied")
	restored, err := service.RestoreReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)

	got, err := service.GetTreatment(ctx, treatment.ID)
	require.NoError(t, err)
	assert.Equal(t, treatment.NotificationID, got.NotificationID)

	_, err = NewRecordsService(memory.New(), nil, nil).RestoreReminders(ctx)
	assert.ErrorIs(t, err, ErrRemindersDisabled)
}

func TestRecordsServiceDeletesCancelReminders(t *testing.T) {
	t.Parallel()

	service, scheduler, hive := newRecordsFixture(t)
	ctx := context.Background()
	due := time.Now().Add(time.Hour)

	first, err := service.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID, Product: "Oxalic", NextCheckDate: &due})
	require.NoError(t, err)
	second, err := service.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID, Product: "Formic", NextCheckDate: &due})
	require.NoError(t, err)

	require.NoError(t, service.DeleteTreatment(ctx, first.ID))
	assert.Equal(t, []string{*first.NotificationID}, scheduler.snapshotCancelled())

	require.NoError(t, service.DeleteApiary(ctx, hive.ApiaryID))
	assert.Equal(t, []string{*first.NotificationID, *second.NotificationID}, scheduler.snapshotCancelled())

	_, err = service.GetHive(ctx, hive.ID)
	assert.ErrorIs(t, err, domain.ErrHiveNotFound)
}

func TestRecordsServiceHarvests(t *testing.T) {
	t.Parallel()

	service, _, hive := newRecordsFixture(t)
	ctx := context.Background()

	harvest, err := service.AddHarvest(ctx, domain.Harvest{HiveID: hive.ID, WeightKg: 12.5})
	require.NoError(t, err)
	assert.False(t, harvest.Date.IsZero())

	harvests, err := service.ListHarvests(ctx, hive.ID)
	require.NoError(t, err)
	require.Len(t, harvests, 1)

	require.NoError(t, service.DeleteHarvest(ctx, harvest.ID))
	assert.ErrorIs(t, service.DeleteHarvest(ctx, harvest.ID), domain.ErrHarvestNotFound)
}

type fakeScheduler struct {
	mu        sync.Mutex
	next      int
	scheduled []domain.Reminder
	cancelled []string
	err       error
}

func (f *fakeScheduler) Schedule(_ context.Context, reminder domain.Reminder) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.next++
	f.scheduled = append(f.scheduled, reminder)
	return fmt.Sprintf("reminder-%d", f.next), nil
}

func (f *fakeScheduler) Cancel(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
}

func (f *fakeScheduler) snapshotScheduled() []domain.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Reminder(nil), f.scheduled...)
}

func (f *fakeScheduler) snapshotCancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrProductRequired   = errors.New("treatment product is required")
	ErrNegativeWeight    = errors.New("harvest weight cannot be negative")
	ErrNoCheckDate       = errors.New("no next check date provided for treatment")
	ErrRemindersDisabled = errors.New("reminders are not configured")
)

// RecordsService manages apiaries, hives and their records, and keeps
// treatment reminders in step with the treatments they belong to.
type RecordsService struct {
	store     ports.Store
	scheduler ports.NotificationScheduler
	now       func() time.Time
	logger    *slog.Logger
}

func NewRecordsService(store ports.Store, scheduler ports.NotificationScheduler, logger *slog.Logger) *RecordsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsService{store: store, scheduler: scheduler, now: time.Now, logger: logger}
}

func (s *RecordsService) CreateApiary(ctx context.Context, apiary domain.Apiary) (domain.Apiary, error) {
	apiary.Name = strings.TrimSpace(apiary.Name)
	if apiary.Name == "" {
		return domain.Apiary{}, ErrNameRequired
	}
	now := s.now()
	apiary.ID = uuid.New()
	apiary.CreatedAt, apiary.ModifiedAt = now, now

	if err := s.store.CreateApiary(ctx, apiary); err != nil {
		return domain.Apiary{}, fmt.Errorf("create apiary: %w", err)
	}
	return apiary, nil
}

func (s *RecordsService) UpdateApiary(ctx context.Context, apiary domain.Apiary) (domain.Apiary, error) {
	apiary.Name = strings.TrimSpace(apiary.Name)
	if apiary.Name == "" {
		return domain.Apiary{}, ErrNameRequired
	}
	existing, err := s.store.GetApiary(ctx, apiary.ID)
	if err != nil {
		return domain.Apiary{}, fmt.Errorf("update apiary: %w", err)
	}
	apiary.CreatedAt = existing.CreatedAt
	apiary.ModifiedAt = s.now()

	if err := s.store.UpdateApiary(ctx, apiary); err != nil {
		return domain.Apiary{}, fmt.Errorf("update apiary: %w", err)
	}
	return apiary, nil
}

func (s *RecordsService) GetApiary(ctx context.Context, id uuid.UUID) (domain.Apiary, error) {
	return s.store.GetApiary(ctx, id)
}

func (s *RecordsService) ListApiaries(ctx context.Context) ([]domain.Apiary, error) {
	return s.store.ListApiaries(ctx)
}

// DeleteApiary removes the apiary with all of its hives and records, cancelling
// their pending reminders.
func (s *RecordsService) DeleteApiary(ctx context.Context, id uuid.UUID) error {
	hives, err := s.store.ListHives(ctx, id)
	if err != nil {
		return fmt.Errorf("delete apiary: %w", err)
	}
	for _, hive := range hives {
		s.cancelHiveReminders(ctx, hive.ID)
	}
	if err := s.store.DeleteApiary(ctx, id); err != nil {
		return fmt.Errorf("delete apiary: %w", err)
	}
	return nil
}

// CreateHive adds a hive to an existing apiary. The QR string defaults to the
// hive ID and the type to DefaultHiveType.
func (s *RecordsService) CreateHive(ctx context.Context, hive domain.Hive) (domain.Hive, error) {
	hive.Name = strings.TrimSpace(hive.Name)
	if hive.Name == "" {
		return domain.Hive{}, ErrNameRequired
	}
	if _, err := s.store.GetApiary(ctx, hive.ApiaryID); err != nil {
		return domain.Hive{}, fmt.Errorf("create hive: %w", err)
	}

	now := s.now()
	hive.ID = uuid.New()
	hive.QRString = strings.TrimSpace(hive.QRString)
	if hive.QRString == "" {
		hive.QRString = hive.ID.String()
	}
	if strings.TrimSpace(hive.Type) == "" {
		hive.Type = domain.DefaultHiveType
	}
	hive.CreatedAt, hive.ModifiedAt = now, now

	if err := s.store.CreateHive(ctx, hive); err != nil {
		return domain.Hive{}, fmt.Errorf("create hive: %w", err)
	}
	return hive, nil
}

func (s *RecordsService) UpdateHive(ctx context.Context, hive domain.Hive) (domain.Hive, error) {
	hive.Name = strings.TrimSpace(hive.Name)
	if hive.Name == "" {
		return domain.Hive{}, ErrNameRequired
	}
	existing, err := s.store.GetHive(ctx, hive.ID)
	if err != nil {
		return domain.Hive{}, fmt.Errorf("update hive: %w", err)
	}
	hive.ApiaryID = existing.ApiaryID
	hive.CreatedAt = existing.CreatedAt
	hive.ModifiedAt = s.now()
	if strings.TrimSpace(hive.QRString) == "" {
		hive.QRString = existing.QRString
	}
	if strings.TrimSpace(hive.Type) == "" {
		hive.Type = existing.Type
	}

	if err := s.store.UpdateHive(ctx, hive); err != nil {
		return domain.Hive{}, fmt.Errorf("update hive: %w", err)
	}
	return hive, nil
}

func (s *RecordsService) GetHive(ctx context.Context, id uuid.UUID) (domain.Hive, error) {
	return s.store.GetHive(ctx, id)
}

func (s *RecordsService) ListHives(ctx context.Context, apiaryID uuid.UUID) ([]domain.Hive, error) {
	return s.store.ListHives(ctx, apiaryID)
}

// HiveByQR resolves a scanned code to its hive.
func (s *RecordsService) HiveByQR(ctx context.Context, code string) (domain.Hive, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Hive{}, domain.ErrHiveNotFound
	}
	return s.store.HiveByQR(ctx, code)
}

func (s *RecordsService) DeleteHive(ctx context.Context, id uuid.UUID) error {
	s.cancelHiveReminders(ctx, id)
	if err := s.store.DeleteHive(ctx, id); err != nil {
		return fmt.Errorf("delete hive: %w", err)
	}
	return nil
}

func (s *RecordsService) ListInspections(ctx context.Context, hiveID uuid.UUID) ([]domain.Inspection, error) {
	return s.store.ListInspections(ctx, hiveID)
}

func (s *RecordsService) DeleteInspection(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteInspection(ctx, id)
}

// AddTreatment records a treatment. When a next check date is given a reminder
// is scheduled; failing to schedule it does not fail the treatment.
func (s *RecordsService) AddTreatment(ctx context.Context, treatment domain.Treatment) (domain.Treatment, error) {
	treatment.Product = strings.TrimSpace(treatment.Product)
	if treatment.Product == "" {
		return domain.Treatment{}, ErrProductRequired
	}
	hive, err := s.store.GetHive(ctx, treatment.HiveID)
	if err != nil {
		return domain.Treatment{}, fmt.Errorf("add treatment: %w", err)
	}

	now := s.now()
	treatment.ID = uuid.New()
	if treatment.Date.IsZero() {
		treatment.Date = now
	}
	treatment.NotificationID = nil
	treatment.CreatedAt, treatment.ModifiedAt = now, now

	if treatment.NextCheckDate != nil {
		s.attachReminder(ctx, hive, &treatment)
	}
	if err := s.store.CreateTreatment(ctx, treatment); err != nil {
		s.detachReminder(&treatment)
		return domain.Treatment{}, fmt.Errorf("add treatment: %w", err)
	}
	return treatment, nil
}

// UpdateTreatment saves changes and reschedules the reminder to match.
func (s *RecordsService) UpdateTreatment(ctx context.Context, treatment domain.Treatment) (domain.Treatment, error) {
	treatment.Product = strings.TrimSpace(treatment.Product)
	if treatment.Product == "" {
		return domain.Treatment{}, ErrProductRequired
	}
	existing, err := s.store.GetTreatment(ctx, treatment.ID)
	if err != nil {
		return domain.Treatment{}, fmt.Errorf("update treatment: %w", err)
	}
	hive, err := s.store.GetHive(ctx, existing.HiveID)
	if err != nil {
		return domain.Treatment{}, fmt.Errorf("update treatment: %w", err)
	}

	treatment.HiveID = existing.HiveID
	treatment.CreatedAt = existing.CreatedAt
	treatment.ModifiedAt = s.now()
	treatment.NotificationID = existing.NotificationID
	s.detachReminder(&treatment)
	if treatment.NextCheckDate != nil {
		s.attachReminder(ctx, hive, &treatment)
	}

	if err := s.store.UpdateTreatment(ctx, treatment); err != nil {
		return domain.Treatment{}, fmt.Errorf("update treatment: %w", err)
	}
	return treatment, nil
}

// ScheduleReminder (re)schedules the reminder for an existing treatment.
func (s *RecordsService) ScheduleReminder(ctx context.Context, treatmentID uuid.UUID) (string, error) {
	treatment, err := s.store.GetTreatment(ctx, treatmentID)
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	if treatment.NextCheckDate == nil {
		return "", ErrNoCheckDate
	}
	if s.scheduler == nil {
		return "", ErrRemindersDisabled
	}
	hive, err := s.store.GetHive(ctx, treatment.HiveID)
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}

	s.detachReminder(&treatment)
	id, err := s.scheduler.Schedule(ctx, reminderFor(hive, treatment))
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	treatment.NotificationID = &id
	treatment.ModifiedAt = s.now()
	if err := s.store.UpdateTreatment(ctx, treatment); err != nil {
		s.scheduler.Cancel(id)
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	return id, nil
}

// RestoreReminders reschedules reminders for every treatment whose next check
// is still ahead, replacing the notification IDs of an earlier run. Treatments
// that cannot be rescheduled are logged and skipped.
func (s *RecordsService) RestoreReminders(ctx context.Context) (int, error) {
	if s.scheduler == nil {
		return 0, ErrRemindersDisabled
	}
	now := s.now()
	restored := 0
	err := s.forEachHive(ctx, func(hive domain.Hive) error {
		treatments, err := s.store.ListTreatments(ctx, hive.ID)
		if err != nil {
			return err
		}
		for _, treatment := range treatments {
			if treatment.NextCheckDate == nil || !treatment.NextCheckDate.After(now) {
				continue
			}
			id, err := s.scheduler.Schedule(ctx, reminderFor(hive, treatment))
			if err != nil {
				s.logger.Warn("failed to restore treatment reminder", "treatment", treatment.ID, "error", err)
				continue
			}
			treatment.NotificationID = &id
			if err := s.store.UpdateTreatment(ctx, treatment); err != nil {
				s.scheduler.Cancel(id)
				s.logger.Warn("failed to store restored reminder", "treatment", treatment.ID, "error", err)
				continue
			}
			restored++
		}
		return nil
	})
	if err != nil {
		return restored, fmt.Errorf("restore reminders: %w", err)
	}
	return restored, nil
}

func (s *RecordsService) GetTreatment(ctx context.Context, id uuid.UUID) (domain.Treatment, error) {
	return s.store.GetTreatment(ctx, id)
}

func (s *RecordsService) ListTreatments(ctx context.Context, hiveID uuid.UUID) ([]domain.Treatment, error) {
	return s.store.ListTreatments(ctx, hiveID)
}

func (s *RecordsService) DeleteTreatment(ctx context.Context, id uuid.UUID) error {
	treatment, err := s.store.GetTreatment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete treatment: %w", err)
	}
	s.detachReminder(&treatment)
	if err := s.store.DeleteTreatment(ctx, id); err != nil {
		return fmt.Errorf("delete treatment: %w", err)
	}
	return nil
}

func (s *RecordsService) AddHarvest(ctx context.Context, harvest domain.Harvest) (domain.Harvest, error) {
	if harvest.WeightKg < 0 {
		return domain.Harvest{}, ErrNegativeWeight
	}
	if _, err := s.store.GetHive(ctx, harvest.HiveID); err != nil {
		return domain.Harvest{}, fmt.Errorf("add harvest: %w", err)
	}

	now := s.now()
	harvest.ID = uuid.New()
	if harvest.Date.IsZero() {
		harvest.Date = now
	}
	harvest.CreatedAt, harvest.ModifiedAt = now, now

	if err := s.store.CreateHarvest(ctx, harvest); err != nil {
		return domain.Harvest{}, fmt.Errorf("add harvest: %w", err)
	}
	return harvest, nil
}

func (s *RecordsService) ListHarvests(ctx context.Context, hiveID uuid.UUID) ([]domain.Harvest, error) {
	return s.store.ListHarvests(ctx, hiveID)
}

func (s *RecordsService) DeleteHarvest(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteHarvest(ctx, id)
}

func (s *RecordsService) attachReminder(ctx context.Context, hive domain.Hive, treatment *domain.Treatment) {
	if s.scheduler == nil {
		return
	}
	id, err := s.scheduler.Schedule(ctx, reminderFor(hive, *treatment))
	if err != nil {
		s.logger.Warn("failed to schedule treatment reminder", "treatment", treatment.ID, "error", err)
		return
	}
	treatment.NotificationID = &id
}

func (s *RecordsService) detachReminder(treatment *domain.Treatment) {
	if treatment.NotificationID == nil {
		return
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(*treatment.NotificationID)
	}
	treatment.NotificationID = nil
}

func (s *RecordsService) cancelHiveReminders(ctx context.Context, hiveID uuid.UUID) {
	treatments, err := s.store.ListTreatments(ctx, hiveID)
	if err != nil {
		s.logger.Warn("failed to list treatments for reminder cleanup", "hive", hiveID, "error", err)
		return
	}
	for i := range treatments {
		s.detachReminder(&treatments[i])
	}
}

func reminderFor(hive domain.Hive, treatment domain.Treatment) domain.Reminder {
	reminder := domain.Reminder{
		TreatmentID: treatment.ID,
		HiveName:    hive.Name,
		Product:     treatment.Product,
	}
	if treatment.NextCheckDate != nil {
		reminder.Due = *treatment.NextCheckDate
	}
	return reminder
}

func (s *RecordsService) forEachHive(ctx context.Context, fn func(domain.Hive) error) error {
	apiaries, err := s.store.ListApiaries(ctx)
	if err != nil {
		return err
	}
	for _, apiary := range apiaries {
		hives, err := s.store.ListHives(ctx, apiary.ID)
		if err != nil {
			return err
		}
		for _, hive := range hives {
			if err := fn(hive); err != nil {
				return err
			}
		}
	}
	return nil
}

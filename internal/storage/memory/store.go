// Package memory is a process-local record store used when no database is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

// Store keeps records in maps guarded by one lock. Returned values are copies.
type Store struct {
	mu          sync.RWMutex
	apiaries    map[uuid.UUID]domain.Apiary
	hives       map[uuid.UUID]domain.Hive
	inspections map[uuid.UUID]domain.Inspection
	treatments  map[uuid.UUID]domain.Treatment
	harvests    map[uuid.UUID]domain.Harvest
}

func New() *Store {
	return &Store{
		apiaries:    make(map[uuid.UUID]domain.Apiary),
		hives:       make(map[uuid.UUID]domain.Hive),
		inspections: make(map[uuid.UUID]domain.Inspection),
		treatments:  make(map[uuid.UUID]domain.Treatment),
		harvests:    make(map[uuid.UUID]domain.Harvest),
	}
}

func (s *Store) CreateApiary(_ context.Context, apiary domain.Apiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiaries[apiary.ID] = apiary
	return nil
}

func (s *Store) UpdateApiary(_ context.Context, apiary domain.Apiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiaries[apiary.ID]; !ok {
		return domain.ErrApiaryNotFound
	}
	s.apiaries[apiary.ID] = apiary
	return nil
}

func (s *Store) GetApiary(_ context.Context, id uuid.UUID) (domain.Apiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apiary, ok := s.apiaries[id]
	if !ok {
		return domain.Apiary{}, domain.ErrApiaryNotFound
	}
	return apiary, nil
}

// ListApiaries returns apiaries sorted by name.
func (s *Store) ListApiaries(_ context.Context) ([]domain.Apiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Apiary, 0, len(s.apiaries))
	for _, apiary := range s.apiaries {
		out = append(out, apiary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// DeleteApiary removes the apiary, its hives and everything recorded on them.
func (s *Store) DeleteApiary(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiaries[id]; !ok {
		return domain.ErrApiaryNotFound
	}
	for hiveID, hive := range s.hives {
		if hive.ApiaryID == id {
			s.deleteHiveLocked(hiveID)
		}
	}
	delete(s.apiaries, id)
	return nil
}

func (s *Store) CreateHive(_ context.Context, hive domain.Hive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiaries[hive.ApiaryID]; !ok {
		return domain.ErrApiaryNotFound
	}
	if s.qrTakenLocked(hive.QRString, hive.ID) {
		return domain.ErrDuplicateQR
	}
	s.hives[hive.ID] = hive
	return nil
}

func (s *Store) UpdateHive(_ context.Context, hive domain.Hive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hives[hive.ID]; !ok {
		return domain.ErrHiveNotFound
	}
	if s.qrTakenLocked(hive.QRString, hive.ID) {
		return domain.ErrDuplicateQR
	}
	s.hives[hive.ID] = hive
	return nil
}

func (s *Store) GetHive(_ context.Context, id uuid.UUID) (domain.Hive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hive, ok := s.hives[id]
	if !ok {
		return domain.Hive{}, domain.ErrHiveNotFound
	}
	return hive, nil
}

func (s *Store) HiveByQR(_ context.Context, code string) (domain.Hive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, hive := range s.hives {
		if hive.QRString == code {
			return hive, nil
		}
	}
	return domain.Hive{}, domain.ErrHiveNotFound
}

// ListHives returns the apiary's hives sorted by name.
func (s *Store) ListHives(_ context.Context, apiaryID uuid.UUID) ([]domain.Hive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Hive
	for _, hive := range s.hives {
		if hive.ApiaryID == apiaryID {
			out = append(out, hive)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) DeleteHive(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hives[id]; !ok {
		return domain.ErrHiveNotFound
	}
	s.deleteHiveLocked(id)
	return nil
}

func (s *Store) CreateInspection(_ context.Context, inspection domain.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hives[inspection.HiveID]; !ok {
		return domain.ErrHiveNotFound
	}
	inspection.Flags = inspection.Flags.Clone()
	inspection.Photos = append([]string{}, inspection.Photos...)
	inspection.Tags = append([]string{}, inspection.Tags...)
	s.inspections[inspection.ID] = inspection
	return nil
}

func (s *Store) ListInspections(_ context.Context, hiveID uuid.UUID) ([]domain.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Inspection
	for _, inspection := range s.inspections {
		if inspection.HiveID == hiveID {
			inspection.Flags = inspection.Flags.Clone()
			inspection.Photos = append([]string{}, inspection.Photos...)
			inspection.Tags = append([]string{}, inspection.Tags...)
			out = append(out, inspection)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteInspection(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inspections[id]; !ok {
		return domain.ErrInspectionNotFound
	}
	delete(s.inspections, id)
	return nil
}

func (s *Store) CreateTreatment(_ context.Context, treatment domain.Treatment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hives[treatment.HiveID]; !ok {
		return domain.ErrHiveNotFound
	}
	s.treatments[treatment.ID] = treatment
	return nil
}

func (s *Store) UpdateTreatment(_ context.Context, treatment domain.Treatment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.treatments[treatment.ID]; !ok {
		return domain.ErrTreatmentNotFound
	}
	s.treatments[treatment.ID] = treatment
	return nil
}

func (s *Store) GetTreatment(_ context.Context, id uuid.UUID) (domain.Treatment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	treatment, ok := s.treatments[id]
	if !ok {
		return domain.Treatment{}, domain.ErrTreatmentNotFound
	}
	return treatment, nil
}

func (s *Store) ListTreatments(_ context.Context, hiveID uuid.UUID) ([]domain.Treatment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Treatment
	for _, treatment := range s.treatments {
		if treatment.HiveID == hiveID {
			out = append(out, treatment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteTreatment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.treatments[id]; !ok {
		return domain.ErrTreatmentNotFound
	}
	delete(s.treatments, id)
	return nil
}

func (s *Store) CreateHarvest(_ context.Context, harvest domain.Harvest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hives[harvest.HiveID]; !ok {
		return domain.ErrHiveNotFound
	}
	s.harvests[harvest.ID] = harvest
	return nil
}

func (s *Store) ListHarvests(_ context.Context, hiveID uuid.UUID) ([]domain.Harvest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Harvest
	for _, harvest := range s.harvests {
		if harvest.HiveID == hiveID {
			out = append(out, harvest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteHarvest(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.harvests[id]; !ok {
		return domain.ErrHarvestNotFound
	}
	delete(s.harvests, id)
	return nil
}

func (s *Store) qrTakenLocked(code string, owner uuid.UUID) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for id, hive := range s.hives {
		if id != owner && hive.QRString == code {
			return true
		}
	}
	return false
}

func (s *Store) deleteHiveLocked(id uuid.UUID) {
	for key, inspection := range s.inspections {
		if inspection.HiveID == id {
			delete(s.inspections, key)
		}
	}
	for key, treatment := range s.treatments {
		if treatment.HiveID == id {
			delete(s.treatments, key)
		}
	}
	for key, harvest := range s.harvests {
		if harvest.HiveID == id {
			delete(s.harvests, key)
		}
	}
	delete(s.hives, id)
}

var _ ports.Store = (*Store)(nil)

package usecase

import (
	"context"
	"fmt"
	"sort"

	"beespeak/internal/domain"
)

// summaryListLimit caps the recent inspection and upcoming treatment lists.
const summaryListLimit = 5

// Summary totals hives, inspections, varroa alerts and harvested weight, and
// lists the latest inspections and the soonest treatment checks from now on.
func (s *RecordsService) Summary(ctx context.Context) (domain.Summary, error) {
	now := s.now()
	summary := domain.Summary{
		RecentInspections:  []domain.Inspection{},
		UpcomingTreatments: []domain.Treatment{},
	}

	err := s.forEachHive(ctx, func(hive domain.Hive) error {
		summary.TotalHives++

		inspections, err := s.store.ListInspections(ctx, hive.ID)
		if err != nil {
			return err
		}
		summary.TotalInspections += len(inspections)
		for _, inspection := range inspections {
			if level := inspection.Flags.VarroaLevel; level == domain.VarroaMedium || level == domain.VarroaHigh {
				summary.VarroaAlerts++
			}
		}
		summary.RecentInspections = append(summary.RecentInspections, inspections...)

		harvests, err := s.store.ListHarvests(ctx, hive.ID)
		if err != nil {
			return err
		}
		for _, harvest := range harvests {
			summary.TotalHarvestKg += harvest.WeightKg
		}

		treatments, err := s.store.ListTreatments(ctx, hive.ID)
		if err != nil {
			return err
		}
		for _, treatment := range treatments {
			if treatment.NextCheckDate != nil && !treatment.NextCheckDate.Before(now) {
				summary.UpcomingTreatments = append(summary.UpcomingTreatments, treatment)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summary: %w", err)
	}

	sort.SliceStable(summary.RecentInspections, func(i, j int) bool {
		return summary.RecentInspections[i].Date.After(summary.RecentInspections[j].Date)
	})
	sort.SliceStable(summary.UpcomingTreatments, func(i, j int) bool {
		return summary.UpcomingTreatments[i].NextCheckDate.Before(*summary.UpcomingTreatments[j].NextCheckDate)
	})
	summary.RecentInspections = truncate(summary.RecentInspections, summaryListLimit)
	summary.UpcomingTreatments = truncate(summary.UpcomingTreatments, summaryListLimit)
	return summary, nil
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

package planning

import (
	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
)

// NormalizeTimeEntry fills DurationMinutes from the wall-clock range when it is unset.
func NormalizeTimeEntry(e *models.TaskTimeEntry) error {
	if e.DurationMinutes < 0 {
		return apperr.InvalidInput("duration_minutes must not be negative")
	}
	if !e.IsComplete() {
		return nil
	}
	if e.EndedAt.Before(*e.StartedAt) {
		return apperr.InvalidInput("ended_at must not be before started_at")
	}
	if e.DurationMinutes == 0 {
		e.DurationMinutes = int(e.EndedAt.Sub(*e.StartedAt).Minutes())
	}
	return nil
}

// ValidateTimeEntry checks candidate against the other entries of the same user.
// In-progress candidates are not checked. The duplicate check runs before the
// overlap check, and ranges are half-open so back-to-back entries are allowed.
func ValidateTimeEntry(candidate models.TaskTimeEntry, existing []models.TaskTimeEntry) error {
	if !candidate.IsComplete() {
		return nil
	}
	others := make([]models.TaskTimeEntry, 0, len(existing))
	for _, e := range existing {
		if e.UserID != candidate.UserID {
			continue
		}
		if candidate.ID != 0 && e.ID == candidate.ID {
			continue
		}
		others = append(others, e)
	}

	for _, e := range others {
		if e.StartedAt != nil && e.StartedAt.Equal(*candidate.StartedAt) &&
			e.DurationMinutes == candidate.DurationMinutes {
			return apperr.DuplicateTimeEntry()
		}
	}
	for _, e := range others {
		if !e.IsComplete() {
			continue
		}
		if e.StartedAt.Before(*candidate.EndedAt) && candidate.StartedAt.Before(*e.EndedAt) {
			return apperr.OverlappingTimeEntry()
		}
	}
	return nil
}

// TotalBillableTime sums minutes of billable entries.
func TotalBillableTime(entries []models.TaskTimeEntry) int {
	total := 0
	for i := range entries {
		if entries[i].IsBillable {
			total += entries[i].DurationMinutes
		}
	}
	return total
}

// TotalBillingAmount sums hours times rate over billable entries, rounded to cents.
func TotalBillingAmount(entries []models.TaskTimeEntry) float64 {
	var total float64
	for i := range entries {
		total += entries[i].BillingAmount()
	}
	return Round2(total)
}

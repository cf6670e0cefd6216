package planning

import (
	"time"

	"projectcrm/internal/models"
)

var day0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

func at(hour, minute int) *time.Time {
	t := time.Date(2025, 3, 3, hour, minute, 0, 0, time.UTC)
	return &t
}

func datePtr(t time.Time) *time.Time { return &t }

func rate(v float64) *float64 { return &v }

func entry(id, userID int64, start, end *time.Time) models.TaskTimeEntry {
	e := models.TaskTimeEntry{ID: id, TaskID: 1, UserID: userID, StartedAt: start, EndedAt: end}
	if start != nil && end != nil {
		e.DurationMinutes = int(end.Sub(*start).Minutes())
	}
	return e
}

package planning

import (
	"math"

	"projectcrm/internal/models"
)

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampPercent bounds v to [0, 100].
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// TaskPercentComplete averages the direct subtasks. Subtasks of subtasks are not
// expanded. Without subtasks the task's own stored value is returned unchanged.
func TaskPercentComplete(own float64, subtasks []models.Task) float64 {
	if len(subtasks) == 0 {
		return own
	}
	var sum float64
	for i := range subtasks {
		sum += subtasks[i].PercentComplete
	}
	return Round2(sum / float64(len(subtasks)))
}

// ProjectPercentComplete is the share of completed tasks, 0 for an empty project.
func ProjectPercentComplete(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for i := range tasks {
		if tasks[i].IsCompleted() {
			completed++
		}
	}
	return Round2(float64(completed) / float64(len(tasks)) * 100)
}

package services

import "projectcrm/internal/models"

// TaskTransitions lists the allowed task status changes.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusNew:        {models.StatusInProgress: true, models.StatusCompleted: true, models.StatusCancelled: true},
	models.StatusInProgress: {models.StatusCompleted: true, models.StatusCancelled: true, models.StatusNew: true},
	models.StatusCompleted:  {models.StatusInProgress: true}, // reopen
	models.StatusCancelled:  {models.StatusNew: true},
}

func canTransition(current, to models.TaskStatus, table map[models.TaskStatus]map[models.TaskStatus]bool) bool {
	if current == "" {
		return true
	}
	if current == to {
		return true
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}

package planning

import (
	"time"

	"projectcrm/internal/models"
)

// EarliestStartDate is the latest end date among deps, nil when none has one.
func EarliestStartDate(deps []models.Task) *time.Time {
	var latest *time.Time
	for i := range deps {
		end := deps[i].EndDate
		if end == nil {
			continue
		}
		if latest == nil || end.After(*latest) {
			t := *end
			latest = &t
		}
	}
	return latest
}

// ViolatesDependencyConstraints reports whether task is scheduled to start
// before all of its dependencies have ended.
func ViolatesDependencyConstraints(task models.Task, deps []models.Task) bool {
	if task.StartDate == nil {
		return false
	}
	earliest := EarliestStartDate(deps)
	if earliest == nil {
		return false
	}
	return task.StartDate.Before(*earliest)
}

// IsBlocked is true while any dependency is not completed, whatever the dates say.
func IsBlocked(deps []models.Task) bool {
	for i := range deps {
		if !deps[i].IsCompleted() {
			return true
		}
	}
	return false
}

// DependencyLookup returns the ids a task directly depends on.
type DependencyLookup func(taskID int64) ([]int64, error)

// WouldCreateDependencyCycle reports whether adding the edge taskID -> dependsOn
// closes a loop, i.e. taskID is already reachable from dependsOn.
func WouldCreateDependencyCycle(taskID, dependsOn int64, depsOf DependencyLookup) (bool, error) {
	if taskID == dependsOn {
		return true, nil
	}
	visited := map[int64]struct{}{}
	stack := []int64{dependsOn}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == taskID {
			return true, nil
		}
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}

		next, err := depsOf(cur)
		if err != nil {
			return false, err
		}
		stack = append(stack, next...)
	}
	return false, nil
}

// BuildSchedule assembles the dependency view of a task.
func BuildSchedule(task models.Task, deps []models.Task) models.TaskSchedule {
	ids := make([]int64, 0, len(deps))
	for i := range deps {
		ids = append(ids, deps[i].ID)
	}
	return models.TaskSchedule{
		TaskID:               task.ID,
		StartDate:            task.StartDate,
		EarliestStartDate:    EarliestStartDate(deps),
		ViolatesDependencies: ViolatesDependencyConstraints(task, deps),
		Blocked:              IsBlocked(deps),
		DependencyIDs:        ids,
	}
}

package planning

import (
	"projectcrm/internal/models"
)

// ActualCost is the billing amount of every billable entry across the project's tasks.
func ActualCost(entriesByTask map[int64][]models.TaskTimeEntry) float64 {
	var total float64
	for _, entries := range entriesByTask {
		for i := range entries {
			total += entries[i].BillingAmount()
		}
	}
	return Round2(total)
}

// BudgetVariance is budget minus actual cost; ok is false without a budget.
func BudgetVariance(p models.Project) (variance float64, ok bool) {
	if p.Budget == nil {
		return 0, false
	}
	return Round2(*p.Budget - p.ActualCost), true
}

// BudgetUtilization is actual cost as a percentage of budget. Only defined for a
// positive budget.
func BudgetUtilization(p models.Project) (utilization float64, ok bool) {
	if p.Budget == nil || *p.Budget <= 0 {
		return 0, false
	}
	return Round2(p.ActualCost / *p.Budget * 100), true
}

func IsOverBudget(p models.Project) bool {
	return p.Budget != nil && p.ActualCost > *p.Budget
}

// BudgetSummary assembles the budget view of p. Actual cost is recomputed from
// entriesByTask so every figure agrees. tasks fixes the breakdown order.
func BudgetSummary(p models.Project, tasks []models.Task, entriesByTask map[int64][]models.TaskTimeEntry) models.BudgetSummary {
	p.ActualCost = ActualCost(entriesByTask)
	s := models.BudgetSummary{
		ProjectID:    p.ID,
		ProjectName:  p.Name,
		Currency:     p.Currency,
		Budget:       p.Budget,
		ActualCost:   p.ActualCost,
		IsOverBudget: IsOverBudget(p),
		Tasks:        make([]models.TaskBudgetLine, 0, len(tasks)),
	}
	if v, ok := BudgetVariance(p); ok {
		s.Variance = &v
	}
	if u, ok := BudgetUtilization(p); ok {
		s.Utilization = &u
	}

	for _, t := range tasks {
		entries := entriesByTask[t.ID]
		minutes := TotalBillableTime(entries)
		s.Tasks = append(s.Tasks, models.TaskBudgetLine{
			TaskID:          t.ID,
			TaskTitle:       t.Title,
			BillableMinutes: minutes,
			BillableHours:   Round2(float64(minutes) / 60),
			BillingAmount:   TotalBillingAmount(entries),
			EntriesCount:    len(entries),
		})
		s.TotalBillableMinutes += minutes
	}
	s.TotalBillableHours = Round2(float64(s.TotalBillableMinutes) / 60)
	return s
}

// TimeLogs flattens the entries of tasks into export rows, in task order.
func TimeLogs(tasks []models.Task, entriesByTask map[int64][]models.TaskTimeEntry, userNames map[int64]string) []models.TimeLogRow {
	var rows []models.TimeLogRow
	for _, t := range tasks {
		for _, e := range entriesByTask[t.ID] {
			rows = append(rows, models.TimeLogRow{
				EntryID:         e.ID,
				TaskID:          t.ID,
				TaskTitle:       t.Title,
				UserID:          e.UserID,
				UserName:        userNames[e.UserID],
				StartedAt:       e.StartedAt,
				EndedAt:         e.EndedAt,
				DurationMinutes: e.DurationMinutes,
				DurationHours:   Round2(e.DurationHours()),
				IsBillable:      e.IsBillable,
				BillingRate:     e.BillingRate,
				BillingAmount:   Round2(e.BillingAmount()),
				Description:     e.Description,
			})
		}
	}
	return rows
}

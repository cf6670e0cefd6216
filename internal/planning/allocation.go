package planning

import (
	"time"

	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
)

// FullCapacity is the allocation ceiling for one employee, in percent.
const FullCapacity = 100.0

// capacityEpsilon absorbs float noise such as 33.33 * 3.
const capacityEpsilon = 1e-9

// TotalAllocation sums the percentages of allocations overlapping [start, end].
func TotalAllocation(allocs []models.Allocation, start, end time.Time) float64 {
	var total float64
	for i := range allocs {
		if allocs[i].OverlapsWith(start, end) {
			total += allocs[i].AllocationPercentage
		}
	}
	return total
}

func AvailableCapacity(allocs []models.Allocation, start, end time.Time) float64 {
	return FullCapacity - TotalAllocation(allocs, start, end)
}

func IsOverAllocated(allocs []models.Allocation, start, end time.Time) bool {
	return TotalAllocation(allocs, start, end) > FullCapacity+capacityEpsilon
}

// CapacityReport summarizes allocations of one employee over [start, end].
func CapacityReport(employeeID int64, allocs []models.Allocation, start, end time.Time) models.CapacityReport {
	total := TotalAllocation(allocs, start, end)
	return models.CapacityReport{
		EmployeeID:        employeeID,
		Start:             start,
		End:               end,
		TotalAllocation:   total,
		AvailableCapacity: FullCapacity - total,
		IsOverAllocated:   total > FullCapacity+capacityEpsilon,
	}
}

// ValidateAllocationRange checks the arguments of a new allocation.
func ValidateAllocationRange(percentage float64, start, end time.Time) error {
	if percentage <= 0 || percentage > FullCapacity {
		return apperr.InvalidInput("allocation_percentage must be in (0, 100]")
	}
	if start.IsZero() || end.IsZero() {
		return apperr.InvalidInput("start_date and end_date are required")
	}
	if end.Before(start) {
		return apperr.InvalidInput("end_date must not be before start_date")
	}
	return nil
}

// CheckAllocation validates a new allocation of percentage over [start, end]
// against the employee's existing allocations.
func CheckAllocation(existing []models.Allocation, percentage float64, start, end time.Time) error {
	if err := ValidateAllocationRange(percentage, start, end); err != nil {
		return err
	}
	if TotalAllocation(existing, start, end)+percentage > FullCapacity+capacityEpsilon {
		return apperr.CapacityExceeded()
	}
	return nil
}

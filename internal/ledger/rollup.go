package ledger

import (
	"fmt"

	"project-ledger/internal/model"

	"github.com/shopspring/decimal"
)

// Rollup holds the read-time aggregates of one project at full precision.
type Rollup struct {
	TimeSpent   decimal.Decimal
	AmountSpent decimal.Decimal
}

// hoursOf treats a task without logged time as zero hours.
func hoursOf(t model.Task) decimal.Decimal {
	if t.TimeSpent.Valid {
		return t.TimeSpent.Decimal
	}
	return decimal.Zero
}

// RollupTasks sums time and cost over tasks. Every task's employee must be in
// employees; a missing one is reported as ErrIntegrity.
func RollupTasks(tasks []model.Task, employees map[int64]model.Employee) (Rollup, error) {
	r := Rollup{TimeSpent: decimal.Zero, AmountSpent: decimal.Zero}
	for _, t := range tasks {
		e, ok := employees[t.EmployeeID]
		if !ok {
			return Rollup{}, fmt.Errorf("%w: task %d references missing employee %d", ErrIntegrity, t.ID, t.EmployeeID)
		}
		hours := hoursOf(t)
		r.TimeSpent = r.TimeSpent.Add(hours)
		r.AmountSpent = r.AmountSpent.Add(hours.Mul(e.HourlyWage))
	}
	return r, nil
}

// SumHours is the time-only rollup; it needs no employee data.
func SumHours(tasks []model.Task) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tasks {
		total = total.Add(hoursOf(t))
	}
	return total
}

// groupByProject keeps task order within each project.
func groupByProject(tasks []model.Task) map[int64][]model.Task {
	grouped := make(map[int64][]model.Task)
	for _, t := range tasks {
		grouped[t.ProjectID] = append(grouped[t.ProjectID], t)
	}
	return grouped
}

func employeeIDs(tasks []model.Task) []int64 {
	seen := make(map[int64]struct{}, len(tasks))
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.EmployeeID]; ok {
			continue
		}
		seen[t.EmployeeID] = struct{}{}
		ids = append(ids, t.EmployeeID)
	}
	return ids
}

func projectIDs(projects []model.Project) []int64 {
	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}

func clientIDs(projects []model.Project) []int64 {
	seen := make(map[int64]struct{}, len(projects))
	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		if _, ok := seen[p.ClientID]; ok {
			continue
		}
		seen[p.ClientID] = struct{}{}
		ids = append(ids, p.ClientID)
	}
	return ids
}

package ledger

import (
	"time"

	"project-ledger/internal/model"

	"github.com/shopspring/decimal"
)

// Money renders as a JSON number with two decimal places.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

// Hours renders as a JSON number with one decimal place.
type Hours decimal.Decimal

func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(h).StringFixed(1)), nil
}

// NullHours renders null for tasks with no logged time.
type NullHours decimal.NullDecimal

func (h NullHours) MarshalJSON() ([]byte, error) {
	if !h.Valid {
		return []byte("null"), nil
	}
	return Hours(h.Decimal).MarshalJSON()
}

type NullMoney decimal.NullDecimal

func (m NullMoney) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return Money(m.Decimal).MarshalJSON()
}

type ProjectSummary struct {
	ProjectID   int64                `json:"project_id"`
	ProjectName string               `json:"project_name"`
	ClientName  string               `json:"client_name"`
	Budget      Money                `json:"budget"`
	TimeSpent   Hours                `json:"time_spent"`
	AmountSpent Money                `json:"amount_spent"`
	Tasks       []ProjectTaskSummary `json:"tasks"`
}

type ProjectTaskSummary struct {
	TaskID          int64            `json:"task_id"`
	TaskName        string           `json:"task_name"`
	DifficultyLevel model.Difficulty `json:"difficulty_level"`
	EmployeeName    string           `json:"employee_name"`
	TimeSpent       NullHours        `json:"time_spent"`
	Status          model.Status     `json:"status"`
}

type ProjectDetail struct {
	Project ProjectHeader `json:"project"`
	Tasks   []ProjectTask `json:"tasks"`
}

type ProjectHeader struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	Budget      Money  `json:"budget"`
	TimeSpent   Hours  `json:"time_spent"`
	AmountSpent Money  `json:"amount_spent"`
}

type ProjectTask struct {
	TaskID          int64            `json:"task_id"`
	TaskName        string           `json:"task_name"`
	DifficultyLevel model.Difficulty `json:"difficulty_level"`
	EmployeeID      int64            `json:"employee_id"`
	TimeSpent       NullHours        `json:"time_spent"`
	Status          model.Status     `json:"status"`
}

type EmployeeView struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	HourlyWage   Money  `json:"hourly_wage"`
}

type EmployeeDetail struct {
	Employee EmployeeView      `json:"employee"`
	Projects []EmployeeProject `json:"projects"`
}

type EmployeeProject struct {
	ProjectID   int64          `json:"project_id"`
	ProjectName string         `json:"project_name"`
	ClientName  string         `json:"client_name"`
	Budget      Money          `json:"budget"`
	Tasks       []EmployeeTask `json:"tasks"`
}

type EmployeeTask struct {
	TaskID          int64            `json:"task_id"`
	TaskName        string           `json:"task_name"`
	DifficultyLevel model.Difficulty `json:"difficulty_level"`
	TimeSpent       NullHours        `json:"time_spent"`
	Status          model.Status     `json:"status"`
}

type ClientView struct {
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name"`
}

type ClientDetail struct {
	Client   ClientView      `json:"client"`
	Projects []ClientProject `json:"projects"`
}

type ClientProject struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Budget      Money  `json:"budget"`
	TimeSpent   Hours  `json:"time_spent"`
}

type BudgetView struct {
	ProjectID       int64     `json:"project_id"`
	AllocatedBudget Money     `json:"allocated_budget"`
	SpentBudget     NullMoney `json:"spent_budget"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newEmployeeView(e model.Employee) EmployeeView {
	return EmployeeView{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		HourlyWage:   Money(e.HourlyWage),
	}
}

func newClientView(c model.Client) ClientView {
	return ClientView{ClientID: c.ID, ClientName: c.Name}
}

func newBudgetView(b model.ProjectBudget) BudgetView {
	return BudgetView{
		ProjectID:       b.ProjectID,
		AllocatedBudget: Money(b.AllocatedBudget),
		SpentBudget:     NullMoney(b.SpentBudget),
		UpdatedAt:       b.UpdatedAt.UTC(),
	}
}

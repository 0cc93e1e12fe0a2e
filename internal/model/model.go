package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Client struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:e"`

	ID         int64           `bun:"id,pk,autoincrement"`
	Name       string          `bun:"name,notnull"`
	HourlyWage decimal.Decimal `bun:"hourly_wage,notnull"`
}

// Project.TimeSpent is a stored snapshot; read paths use the sum over tasks.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID        int64               `bun:"id,pk,autoincrement"`
	ClientID  int64               `bun:"client_id,notnull"`
	Name      string              `bun:"name,notnull"`
	Budget    decimal.Decimal     `bun:"budget,notnull"`
	TimeSpent decimal.NullDecimal `bun:"time_spent"`
}

type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID              int64               `bun:"id,pk,autoincrement"`
	ProjectID       int64               `bun:"project_id,notnull"`
	Name            string              `bun:"name,notnull"`
	DifficultyLevel Difficulty          `bun:"difficulty_level,notnull"`
	EmployeeID      int64               `bun:"employee_id,notnull"`
	TimeSpent       decimal.NullDecimal `bun:"time_spent"`
	Status          Status              `bun:"status,notnull"`
}

// ProjectBudget is written by the snapshot job only and drifts from live task data afterwards.
type ProjectBudget struct {
	bun.BaseModel `bun:"table:project_budgets,alias:pb"`

	ProjectID       int64               `bun:"project_id,pk"`
	AllocatedBudget decimal.Decimal     `bun:"allocated_budget,notnull"`
	SpentBudget     decimal.NullDecimal `bun:"spent_budget"`
	UpdatedAt       time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

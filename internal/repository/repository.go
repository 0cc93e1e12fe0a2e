package repository

import (
	"context"
	"time"

	"project-ledger/internal/model"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Repository is the record store for the ledger entities.
// Lists are ordered by primary key.
type Repository interface {
	// RunInTx calls fn with a repository bound to one transaction.
	// Nested calls reuse the outer transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error

	CreateClient(ctx context.Context, client *model.Client) error
	ListClients(ctx context.Context) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	GetClientByName(ctx context.Context, name string) (*model.Client, error)
	GetClientsByIDs(ctx context.Context, ids []int64) ([]model.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	CreateEmployee(ctx context.Context, employee *model.Employee) error
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*model.Employee, error)
	GetEmployeesByIDs(ctx context.Context, ids []int64) ([]model.Employee, error)
	UpdateEmployee(ctx context.Context, employee *model.Employee) error

	CreateProject(ctx context.Context, project *model.Project) error
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjectsByClient(ctx context.Context, clientID int64) ([]model.Project, error)
	ListProjectsByIDs(ctx context.Context, ids []int64) ([]model.Project, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	UpdateProjectTimeSpent(ctx context.Context, id int64, timeSpent decimal.Decimal) error
	DeleteProject(ctx context.Context, id int64) error
	DeleteProjectsByClient(ctx context.Context, clientID int64) (int, error)

	CreateTask(ctx context.Context, task *model.Task) error
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	ListTasksByProjects(ctx context.Context, projectIDs []int64) ([]model.Task, error)
	ListTasksByEmployee(ctx context.Context, employeeID int64) ([]model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id int64) error
	DeleteTasksByProjects(ctx context.Context, projectIDs []int64) (int, error)

	UpsertBudget(ctx context.Context, budget *model.ProjectBudget) error
	ListBudgets(ctx context.Context) ([]model.ProjectBudget, error)
	GetBudget(ctx context.Context, projectID int64) (*model.ProjectBudget, error)
}

type repository struct {
	db   *bun.DB
	conn bun.IDB
}

func New(db *bun.DB) Repository {
	return &repository{db: db, conn: db}
}

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &repository{conn: tx})
	})
}

// --- clients ---

func (r *repository) CreateClient(ctx context.Context, client *model.Client) error {
	_, err := r.conn.NewInsert().Model(client).Returning("id").Exec(ctx)
	return translate(err)
}

func (r *repository) ListClients(ctx context.Context) ([]model.Client, error) {
	clients := make([]model.Client, 0)
	err := r.conn.NewSelect().Model(&clients).OrderExpr("c.id ASC").Scan(ctx)
	return clients, translate(err)
}

func (r *repository) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	client := new(model.Client)
	if err := r.conn.NewSelect().Model(client).Where("c.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return client, nil
}

// GetClientByName returns the lowest-id client when names repeat.
func (r *repository) GetClientByName(ctx context.Context, name string) (*model.Client, error) {
	client := new(model.Client)
	err := r.conn.NewSelect().
		Model(client).
		Where("c.name = ?", name).
		OrderExpr("c.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return client, nil
}

func (r *repository) GetClientsByIDs(ctx context.Context, ids []int64) ([]model.Client, error) {
	clients := make([]model.Client, 0, len(ids))
	if len(ids) == 0 {
		return clients, nil
	}
	err := r.conn.NewSelect().Model(&clients).Where("c.id IN (?)", bun.In(ids)).OrderExpr("c.id ASC").Scan(ctx)
	return clients, translate(err)
}

func (r *repository) DeleteClient(ctx context.Context, id int64) error {
	res, err := r.conn.NewDelete().Model((*model.Client)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

// --- employees ---

func (r *repository) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	_, err := r.conn.NewInsert().Model(employee).Returning("id").Exec(ctx)
	return translate(err)
}

func (r *repository) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	employees := make([]model.Employee, 0)
	err := r.conn.NewSelect().Model(&employees).OrderExpr("e.id ASC").Scan(ctx)
	return employees, translate(err)
}

func (r *repository) GetEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	employee := new(model.Employee)
	if err := r.conn.NewSelect().Model(employee).Where("e.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return employee, nil
}

func (r *repository) GetEmployeesByIDs(ctx context.Context, ids []int64) ([]model.Employee, error) {
	employees := make([]model.Employee, 0, len(ids))
	if len(ids) == 0 {
		return employees, nil
	}
	err := r.conn.NewSelect().Model(&employees).Where("e.id IN (?)", bun.In(ids)).OrderExpr("e.id ASC").Scan(ctx)
	return employees, translate(err)
}

func (r *repository) UpdateEmployee(ctx context.Context, employee *model.Employee) error {
	res, err := r.conn.NewUpdate().
		Model(employee).
		Column("name", "hourly_wage").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

// --- projects ---

func (r *repository) CreateProject(ctx context.Context, project *model.Project) error {
	_, err := r.conn.NewInsert().Model(project).Returning("id").Exec(ctx)
	return translate(err)
}

func (r *repository) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects := make([]model.Project, 0)
	err := r.conn.NewSelect().Model(&projects).OrderExpr("p.id ASC").Scan(ctx)
	return projects, translate(err)
}

func (r *repository) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	project := new(model.Project)
	if err := r.conn.NewSelect().Model(project).Where("p.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return project, nil
}

func (r *repository) ListProjectsByClient(ctx context.Context, clientID int64) ([]model.Project, error) {
	projects := make([]model.Project, 0)
	err := r.conn.NewSelect().Model(&projects).Where("p.client_id = ?", clientID).OrderExpr("p.id ASC").Scan(ctx)
	return projects, translate(err)
}

func (r *repository) ListProjectsByIDs(ctx context.Context, ids []int64) ([]model.Project, error) {
	projects := make([]model.Project, 0, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}
	err := r.conn.NewSelect().Model(&projects).Where("p.id IN (?)", bun.In(ids)).OrderExpr("p.id ASC").Scan(ctx)
	return projects, translate(err)
}

func (r *repository) UpdateProject(ctx context.Context, project *model.Project) error {
	res, err := r.conn.NewUpdate().
		Model(project).
		Column("client_id", "name", "budget").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

func (r *repository) UpdateProjectTimeSpent(ctx context.Context, id int64, timeSpent decimal.Decimal) error {
	res, err := r.conn.NewUpdate().
		Model((*model.Project)(nil)).
		Set("time_spent = ?", timeSpent).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

func (r *repository) DeleteProject(ctx context.Context, id int64) error {
	res, err := r.conn.NewDelete().Model((*model.Project)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

func (r *repository) DeleteProjectsByClient(ctx context.Context, clientID int64) (int, error) {
	res, err := r.conn.NewDelete().Model((*model.Project)(nil)).Where("client_id = ?", clientID).Exec(ctx)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- tasks ---

func (r *repository) CreateTask(ctx context.Context, task *model.Task) error {
	_, err := r.conn.NewInsert().Model(task).Returning("id").Exec(ctx)
	return translate(err)
}

func (r *repository) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	err := r.conn.NewSelect().Model(&tasks).OrderExpr("t.id ASC").Scan(ctx)
	return tasks, translate(err)
}

func (r *repository) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	task := new(model.Task)
	if err := r.conn.NewSelect().Model(task).Where("t.id = ?", id).Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return task, nil
}

func (r *repository) ListTasksByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	err := r.conn.NewSelect().Model(&tasks).Where("t.project_id = ?", projectID).OrderExpr("t.id ASC").Scan(ctx)
	return tasks, translate(err)
}

func (r *repository) ListTasksByProjects(ctx context.Context, projectIDs []int64) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if len(projectIDs) == 0 {
		return tasks, nil
	}
	err := r.conn.NewSelect().
		Model(&tasks).
		Where("t.project_id IN (?)", bun.In(projectIDs)).
		OrderExpr("t.id ASC").
		Scan(ctx)
	return tasks, translate(err)
}

func (r *repository) ListTasksByEmployee(ctx context.Context, employeeID int64) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	err := r.conn.NewSelect().Model(&tasks).Where("t.employee_id = ?", employeeID).OrderExpr("t.id ASC").Scan(ctx)
	return tasks, translate(err)
}

func (r *repository) UpdateTask(ctx context.Context, task *model.Task) error {
	res, err := r.conn.NewUpdate().
		Model(task).
		Column("name", "time_spent", "status").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

func (r *repository) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.conn.NewDelete().Model((*model.Task)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectAffected(res)
}

func (r *repository) DeleteTasksByProjects(ctx context.Context, projectIDs []int64) (int, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	res, err := r.conn.NewDelete().
		Model((*model.Task)(nil)).
		Where("project_id IN (?)", bun.In(projectIDs)).
		Exec(ctx)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- budgets ---

// UpsertBudget writes the snapshot row for budget.ProjectID, replacing any previous one.
func (r *repository) UpsertBudget(ctx context.Context, budget *model.ProjectBudget) error {
	if budget.UpdatedAt.IsZero() {
		budget.UpdatedAt = time.Now().UTC()
	}
	_, err := r.conn.NewInsert().
		Model(budget).
		On("CONFLICT (project_id) DO UPDATE").
		Set("allocated_budget = EXCLUDED.allocated_budget").
		Set("spent_budget = EXCLUDED.spent_budget").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return translate(err)
}

func (r *repository) ListBudgets(ctx context.Context) ([]model.ProjectBudget, error) {
	budgets := make([]model.ProjectBudget, 0)
	err := r.conn.NewSelect().Model(&budgets).OrderExpr("pb.project_id ASC").Scan(ctx)
	return budgets, translate(err)
}

func (r *repository) GetBudget(ctx context.Context, projectID int64) (*model.ProjectBudget, error) {
	budget := new(model.ProjectBudget)
	if err := r.conn.NewSelect().Model(budget).Where("pb.project_id = ?", projectID).Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return budget, nil
}

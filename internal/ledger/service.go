package ledger

import (
	"context"
	"log/slog"
	"time"

	"project-ledger/internal/metrics"
	"project-ledger/internal/model"
	"project-ledger/internal/repository"
)

// EventPublisher receives a notification after each committed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, entityID int64, data any)
}

type Service interface {
	ListProjects(ctx context.Context) ([]ProjectSummary, error)
	GetProject(ctx context.Context, id int64) (*ProjectDetail, error)
	CreateProject(ctx context.Context, in NewProjectInput) (int64, error)
	UpdateProject(ctx context.Context, id int64, in ProjectUpdateInput) error
	DeleteProject(ctx context.Context, id int64) error

	ListEmployees(ctx context.Context) ([]EmployeeView, error)
	GetEmployee(ctx context.Context, id int64) (*EmployeeDetail, error)
	CreateEmployee(ctx context.Context, in EmployeeInput) (int64, error)
	UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) error

	ListClients(ctx context.Context) ([]ClientView, error)
	GetClient(ctx context.Context, id int64) (*ClientDetail, error)
	CreateClient(ctx context.Context, in ClientInput) (int64, error)
	DeleteClient(ctx context.Context, id int64) error

	CreateTask(ctx context.Context, in NewTaskInput) (int64, error)
	UpdateTask(ctx context.Context, id int64, in TaskUpdateInput) error
	DeleteTask(ctx context.Context, id int64) error

	ListBudgets(ctx context.Context) ([]BudgetView, error)
	GetBudget(ctx context.Context, projectID int64) (*BudgetView, error)
	// SnapshotBudgets writes one ProjectBudget row per project from the live
	// rollup and returns how many were written.
	SnapshotBudgets(ctx context.Context) (int, error)
}

type service struct {
	repo    repository.Repository
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*service)

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo repository.Repository, events EventPublisher, m *metrics.Metrics, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		repo:    repo,
		events:  events,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe is deferred by every operation with a pointer to its named error.
func (s *service) observe(ctx context.Context, entity, operation string, start time.Time, err *error) {
	s.metrics.Ledger.RecordOperation(ctx, entity, operation, time.Since(start), *err)
}

func (s *service) publish(ctx context.Context, eventType string, entityID int64, data any) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, entityID, data)
}

// employeesFor batch-loads the employees referenced by tasks.
func employeesFor(ctx context.Context, repo repository.Repository, tasks []model.Task) (map[int64]model.Employee, error) {
	employees, err := repo.GetEmployeesByIDs(ctx, employeeIDs(tasks))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	return byID, nil
}

// clientsFor batch-loads the clients owning projects.
func clientsFor(ctx context.Context, repo repository.Repository, projects []model.Project) (map[int64]model.Client, error) {
	clients, err := repo.GetClientsByIDs(ctx, clientIDs(projects))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return byID, nil
}

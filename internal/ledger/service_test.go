package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"project-ledger/internal/events"
	"project-ledger/internal/ledger"
	"project-ledger/internal/metrics"
	"project-ledger/internal/model"
	"project-ledger/internal/repository"
	"project-ledger/internal/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	Type     string
	EntityID int64
	Data     any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, entityID int64, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, EntityID: entityID, Data: data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T, opts ...ledger.Option) (ledger.Service, repository.Repository, *recordingPublisher) {
	t.Helper()
	repo := repository.New(testdb.NewSQLite(t))
	pub := &recordingPublisher{}
	return ledger.NewService(repo, pub, metrics.NewMock(), discardLogger(), opts...), repo, pub
}

func TestService_CreateAndRollup(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	clientID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "  Acme  "})
	require.NoError(t, err)
	adaID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Ada", HourlyWage: dec("50")})
	require.NoError(t, err)
	bobID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Bob", HourlyWage: dec("20.5")})
	require.NoError(t, err)
	projectID, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "Website", Budget: dec("1000")})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, ledger.NewTaskInput{
		ProjectID: projectID, Name: "Design", DifficultyLevel: "easy", EmployeeID: adaID, TimeSpent: dec("2"), Status: "done",
	})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, ledger.NewTaskInput{
		ProjectID: projectID, Name: "Build", DifficultyLevel: "hard", EmployeeID: bobID, TimeSpent: dec("1.25"), Status: "in progress",
	})
	require.NoError(t, err)

	detail, err := svc.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", detail.Project.ClientName)
	assert.Equal(t, "3.25", decimal.Decimal(detail.Project.TimeSpent).String())
	assert.Equal(t, "125.625", decimal.Decimal(detail.Project.AmountSpent).String())
	require.Len(t, detail.Tasks, 2)
	assert.Equal(t, adaID, detail.Tasks[0].EmployeeID)

	summaries, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Website", summaries[0].ProjectName)
	require.Len(t, summaries[0].Tasks, 2)
	assert.Equal(t, "Bob", summaries[0].Tasks[1].EmployeeName)

	assert.Equal(t, []string{
		events.ClientCreated,
		events.EmployeeCreated,
		events.EmployeeCreated,
		events.ProjectCreated,
		events.TaskCreated,
		events.TaskCreated,
	}, pub.types())
}

func TestService_Validation(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "   "})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Ada", HourlyWage: dec("-1")})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: 1, Name: "X", Budget: dec("-5")})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: 99, Name: "X", Budget: dec("5")})
	assert.ErrorIs(t, err, ledger.ErrConstraintViolation)

	_, err = svc.CreateTask(ctx, ledger.NewTaskInput{ProjectID: 1, Name: "T", DifficultyLevel: "extreme", EmployeeID: 1, Status: "done"})
	assert.ErrorIs(t, err, ledger.ErrConstraintViolation)

	_, err = svc.CreateTask(ctx, ledger.NewTaskInput{ProjectID: 1, Name: "T", DifficultyLevel: "easy", EmployeeID: 1, Status: "finished"})
	assert.ErrorIs(t, err, ledger.ErrConstraintViolation)

	_, err = svc.CreateTask(ctx, ledger.NewTaskInput{ProjectID: 1, Name: "T", DifficultyLevel: "easy", EmployeeID: 1, TimeSpent: dec("-1"), Status: "done"})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	assert.Empty(t, pub.types(), "failed operations publish nothing")
}

func TestService_UpdateProjectUnknownClient(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	clientID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "Acme"})
	require.NoError(t, err)
	projectID, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "X", Budget: dec("10")})
	require.NoError(t, err)

	err = svc.UpdateProject(ctx, projectID, ledger.ProjectUpdateInput{Name: "Y", Budget: dec("20"), ClientName: "Globex"})
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Contains(t, err.Error(), `"Globex"`)

	err = svc.UpdateProject(ctx, 404, ledger.ProjectUpdateInput{Name: "Y", Budget: dec("20"), ClientName: "Acme"})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	otherID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "Globex"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateProject(ctx, projectID, ledger.ProjectUpdateInput{Name: "Y", Budget: dec("20"), ClientName: "Globex"}))

	client, err := svc.GetClient(ctx, otherID)
	require.NoError(t, err)
	require.Len(t, client.Projects, 1)
	assert.Equal(t, "Y", client.Projects[0].ProjectName)
}

func TestService_DeleteClientCascades(t *testing.T) {
	svc, repo, pub := newTestService(t)
	ctx := context.Background()

	clientID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "Acme"})
	require.NoError(t, err)
	employeeID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Ada", HourlyWage: dec("50")})
	require.NoError(t, err)
	for _, name := range []string{"A", "B"} {
		projectID, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: name, Budget: dec("100")})
		require.NoError(t, err)
		_, err = svc.CreateTask(ctx, ledger.NewTaskInput{
			ProjectID: projectID, Name: "T", DifficultyLevel: "medium", EmployeeID: employeeID, TimeSpent: dec("1"), Status: "done",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteClient(ctx, clientID))

	projects, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
	tasks, err := repo.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "tasks of deleted projects are removed too")

	employee, err := svc.GetEmployee(ctx, employeeID)
	require.NoError(t, err)
	assert.Empty(t, employee.Projects)

	assert.ErrorIs(t, svc.DeleteClient(ctx, clientID), ledger.ErrNotFound)

	types := pub.types()
	assert.Equal(t, events.ClientDeleted, types[len(types)-1])
	last := pub.events[len(pub.events)-1]
	assert.Equal(t, map[string]any{"projects_deleted": 2, "tasks_deleted": 2}, last.Data)
}

func TestService_GetEmployeeGroupsTasksByProject(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	clientID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "Acme"})
	require.NoError(t, err)
	adaID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Ada", HourlyWage: dec("50")})
	require.NoError(t, err)
	bobID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Bob", HourlyWage: dec("40")})
	require.NoError(t, err)

	p1, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "One", Budget: dec("100")})
	require.NoError(t, err)
	p2, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "Two", Budget: dec("200")})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "Three", Budget: dec("300")})
	require.NoError(t, err)

	newTask := func(projectID, employeeID int64, name string) {
		_, err := svc.CreateTask(ctx, ledger.NewTaskInput{
			ProjectID: projectID, Name: name, DifficultyLevel: "easy", EmployeeID: employeeID, TimeSpent: dec("1"), Status: "done",
		})
		require.NoError(t, err)
	}
	newTask(p2, adaID, "a")
	newTask(p1, adaID, "b")
	newTask(p2, adaID, "c")
	newTask(p1, bobID, "d")

	detail, err := svc.GetEmployee(ctx, adaID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", detail.Employee.EmployeeName)
	require.Len(t, detail.Projects, 2)

	assert.Equal(t, "One", detail.Projects[0].ProjectName)
	assert.Equal(t, "Acme", detail.Projects[0].ClientName)
	require.Len(t, detail.Projects[0].Tasks, 1)
	assert.Equal(t, "b", detail.Projects[0].Tasks[0].TaskName)

	assert.Equal(t, "Two", detail.Projects[1].ProjectName)
	require.Len(t, detail.Projects[1].Tasks, 2)
	assert.Equal(t, "a", detail.Projects[1].Tasks[0].TaskName)
	assert.Equal(t, "c", detail.Projects[1].Tasks[1].TaskName)

	_, err = svc.GetEmployee(ctx, 999)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_MissingEmployeeIsIntegrityError(t *testing.T) {
	db := testdb.NewSQLite(t)
	repo := repository.New(db)
	svc := ledger.NewService(repo, nil, metrics.NewMock(), discardLogger())
	ctx := context.Background()

	clientID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "Acme"})
	require.NoError(t, err)
	employeeID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Ada", HourlyWage: dec("50")})
	require.NoError(t, err)
	projectID, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "X", Budget: dec("100")})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, ledger.NewTaskInput{
		ProjectID: projectID, Name: "T", DifficultyLevel: "easy", EmployeeID: employeeID, TimeSpent: dec("1"), Status: "done",
	})
	require.NoError(t, err)

	// simulate a legacy store without enforced foreign keys
	_, err = db.ExecContext(ctx, "PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = db.NewDelete().Model((*model.Employee)(nil)).Where("id = ?", employeeID).Exec(ctx)
	require.NoError(t, err)

	_, err = svc.ListProjects(ctx)
	assert.ErrorIs(t, err, ledger.ErrIntegrity)
	_, err = svc.GetProject(ctx, projectID)
	assert.ErrorIs(t, err, ledger.ErrIntegrity)
}

func TestService_SnapshotBudgets(t *testing.T) {
	takenAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, repo, pub := newTestService(t, ledger.WithClock(func() time.Time { return takenAt }))
	ctx := context.Background()

	clientID, err := svc.CreateClient(ctx, ledger.ClientInput{Name: "Acme"})
	require.NoError(t, err)
	employeeID, err := svc.CreateEmployee(ctx, ledger.EmployeeInput{Name: "Ada", HourlyWage: dec("33.333")})
	require.NoError(t, err)
	projectID, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "X", Budget: dec("1000")})
	require.NoError(t, err)
	emptyID, err := svc.CreateProject(ctx, ledger.NewProjectInput{ClientID: clientID, Name: "Empty", Budget: dec("50")})
	require.NoError(t, err)
	taskID, err := svc.CreateTask(ctx, ledger.NewTaskInput{
		ProjectID: projectID, Name: "T", DifficultyLevel: "easy", EmployeeID: employeeID, TimeSpent: dec("3"), Status: "done",
	})
	require.NoError(t, err)

	_, err = svc.GetBudget(ctx, projectID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	n, err := svc.SnapshotBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	budget, err := svc.GetBudget(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "1000", decimal.Decimal(budget.AllocatedBudget).String())
	assert.Equal(t, "100", budget.SpentBudget.Decimal.String(), "stored rounded to cents")
	assert.True(t, takenAt.Equal(budget.UpdatedAt))

	empty, err := svc.GetBudget(ctx, emptyID)
	require.NoError(t, err)
	assert.True(t, empty.SpentBudget.Decimal.IsZero())

	project, err := repo.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "3", project.TimeSpent.Decimal.String())

	// the snapshot does not follow later task edits
	require.NoError(t, svc.UpdateTask(ctx, taskID, ledger.TaskUpdateInput{Name: "T", TimeSpent: dec("10"), Status: "done"}))

	budget, err = svc.GetBudget(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "100", budget.SpentBudget.Decimal.String())

	live, err := svc.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "333.33", decimal.Decimal(live.Project.AmountSpent).String())

	budgets, err := svc.ListBudgets(ctx)
	require.NoError(t, err)
	assert.Len(t, budgets, 2)

	assert.Contains(t, pub.types(), events.BudgetsSnapshotted)
}

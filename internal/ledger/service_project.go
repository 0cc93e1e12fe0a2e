package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-ledger/internal/events"
	"project-ledger/internal/model"
	"project-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

type NewProjectInput struct {
	ClientID int64
	Name     string
	Budget   decimal.Decimal
}

// ProjectUpdateInput moves the project to the client named ClientName.
type ProjectUpdateInput struct {
	Name       string
	Budget     decimal.Decimal
	ClientName string
}

func (s *service) ListProjects(ctx context.Context) (summaries []ProjectSummary, err error) {
	defer s.observe(ctx, "project", "list", time.Now(), &err)

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		projects, err := tx.ListProjects(ctx)
		if err != nil {
			return err
		}
		clients, err := clientsFor(ctx, tx, projects)
		if err != nil {
			return err
		}
		tasks, err := tx.ListTasksByProjects(ctx, projectIDs(projects))
		if err != nil {
			return err
		}
		employees, err := employeesFor(ctx, tx, tasks)
		if err != nil {
			return err
		}

		byProject := groupByProject(tasks)
		summaries = make([]ProjectSummary, 0, len(projects))
		for _, p := range projects {
			client, ok := clients[p.ClientID]
			if !ok {
				return fmt.Errorf("%w: project %d references missing client %d", ErrIntegrity, p.ID, p.ClientID)
			}

			projectTasks := byProject[p.ID]
			rollup, err := RollupTasks(projectTasks, employees)
			if err != nil {
				return err
			}

			taskViews := make([]ProjectTaskSummary, 0, len(projectTasks))
			for _, t := range projectTasks {
				taskViews = append(taskViews, ProjectTaskSummary{
					TaskID:          t.ID,
					TaskName:        t.Name,
					DifficultyLevel: t.DifficultyLevel,
					EmployeeName:    employees[t.EmployeeID].Name,
					TimeSpent:       NullHours(t.TimeSpent),
					Status:          t.Status,
				})
			}

			summaries = append(summaries, ProjectSummary{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				ClientName:  client.Name,
				Budget:      Money(p.Budget),
				TimeSpent:   Hours(rollup.TimeSpent),
				AmountSpent: Money(rollup.AmountSpent),
				Tasks:       taskViews,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *service) GetProject(ctx context.Context, id int64) (detail *ProjectDetail, err error) {
	defer s.observe(ctx, "project", "get", time.Now(), &err)

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		project, err := tx.GetProject(ctx, id)
		if err != nil {
			return lookup(err, "project", id)
		}
		client, err := tx.GetClient(ctx, project.ClientID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: project %d references missing client %d", ErrIntegrity, project.ID, project.ClientID)
		}
		if err != nil {
			return err
		}
		tasks, err := tx.ListTasksByProject(ctx, id)
		if err != nil {
			return err
		}
		employees, err := employeesFor(ctx, tx, tasks)
		if err != nil {
			return err
		}
		rollup, err := RollupTasks(tasks, employees)
		if err != nil {
			return err
		}

		taskViews := make([]ProjectTask, 0, len(tasks))
		for _, t := range tasks {
			taskViews = append(taskViews, ProjectTask{
				TaskID:          t.ID,
				TaskName:        t.Name,
				DifficultyLevel: t.DifficultyLevel,
				EmployeeID:      t.EmployeeID,
				TimeSpent:       NullHours(t.TimeSpent),
				Status:          t.Status,
			})
		}

		detail = &ProjectDetail{
			Project: ProjectHeader{
				ProjectID:   project.ID,
				ProjectName: project.Name,
				ClientName:  client.Name,
				Budget:      Money(project.Budget),
				TimeSpent:   Hours(rollup.TimeSpent),
				AmountSpent: Money(rollup.AmountSpent),
			},
			Tasks: taskViews,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) CreateProject(ctx context.Context, in NewProjectInput) (id int64, err error) {
	defer s.observe(ctx, "project", "create", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, invalid("project_name must not be blank")
	}
	if in.Budget.IsNegative() {
		return 0, invalid("budget must not be negative")
	}

	project := &model.Project{
		ClientID:  in.ClientID,
		Name:      name,
		Budget:    in.Budget,
		TimeSpent: decimal.NewNullDecimal(decimal.Zero),
	}

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.GetClient(ctx, in.ClientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return missingReference("client", in.ClientID)
			}
			return err
		}
		return tx.CreateProject(ctx, project)
	})
	if err != nil {
		return 0, err
	}

	s.publish(ctx, events.ProjectCreated, project.ID, map[string]any{
		"client_id":    project.ClientID,
		"project_name": project.Name,
		"budget":       project.Budget.String(),
	})
	return project.ID, nil
}

func (s *service) UpdateProject(ctx context.Context, id int64, in ProjectUpdateInput) (err error) {
	defer s.observe(ctx, "project", "update", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("project_name must not be blank")
	}
	if in.Budget.IsNegative() {
		return invalid("budget must not be negative")
	}
	clientName := strings.TrimSpace(in.ClientName)
	if clientName == "" {
		return invalid("client_name must not be blank")
	}

	var project *model.Project
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		if err != nil {
			return lookup(err, "project", id)
		}

		client, err := tx.GetClientByName(ctx, clientName)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("client %q does not exist", clientName)
		}
		if err != nil {
			return err
		}

		project.Name = name
		project.Budget = in.Budget
		project.ClientID = client.ID
		if err := tx.UpdateProject(ctx, project); err != nil {
			return lookup(err, "project", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.ProjectUpdated, id, map[string]any{
		"client_id":    project.ClientID,
		"project_name": project.Name,
		"budget":       project.Budget.String(),
	})
	return nil
}

// DeleteProject removes the project with its tasks; the budget snapshot goes with it via the schema.
func (s *service) DeleteProject(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "project", "delete", time.Now(), &err)

	var removedTasks int
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.GetProject(ctx, id); err != nil {
			return lookup(err, "project", id)
		}
		n, err := tx.DeleteTasksByProjects(ctx, []int64{id})
		if err != nil {
			return err
		}
		removedTasks = n
		return lookup(tx.DeleteProject(ctx, id), "project", id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "project deleted successfully", "project_id", id, "tasks_deleted", removedTasks)
	s.publish(ctx, events.ProjectDeleted, id, map[string]any{"tasks_deleted": removedTasks})
	return nil
}

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

type EmployeeInput struct {
	Name       string
	HourlyWage decimal.Decimal
}

func (in EmployeeInput) validate() (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", invalid("employee_name must not be blank")
	}
	if in.HourlyWage.IsNegative() {
		return "", invalid("hourly_wage must not be negative")
	}
	return name, nil
}

func (s *service) ListEmployees(ctx context.Context) (views []EmployeeView, err error) {
	defer s.observe(ctx, "employee", "list", time.Now(), &err)

	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	views = make([]EmployeeView, 0, len(employees))
	for _, e := range employees {
		views = append(views, newEmployeeView(e))
	}
	return views, nil
}

// GetEmployee groups the employee's tasks under the projects they belong to.
func (s *service) GetEmployee(ctx context.Context, id int64) (detail *EmployeeDetail, err error) {
	defer s.observe(ctx, "employee", "get", time.Now(), &err)

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		employee, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return lookup(err, "employee", id)
		}
		tasks, err := tx.ListTasksByEmployee(ctx, id)
		if err != nil {
			return err
		}

		byProject := groupByProject(tasks)
		ids := make([]int64, 0, len(byProject))
		for pid := range byProject {
			ids = append(ids, pid)
		}

		projects, err := tx.ListProjectsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(projects) != len(ids) {
			return fmt.Errorf("%w: tasks of employee %d reference missing projects", ErrIntegrity, id)
		}
		clients, err := clientsFor(ctx, tx, projects)
		if err != nil {
			return err
		}

		projectViews := make([]EmployeeProject, 0, len(projects))
		for _, p := range projects {
			client, ok := clients[p.ClientID]
			if !ok {
				return fmt.Errorf("%w: project %d references missing client %d", ErrIntegrity, p.ID, p.ClientID)
			}

			taskViews := make([]EmployeeTask, 0, len(byProject[p.ID]))
			for _, t := range byProject[p.ID] {
				taskViews = append(taskViews, EmployeeTask{
					TaskID:          t.ID,
					TaskName:        t.Name,
					DifficultyLevel: t.DifficultyLevel,
					TimeSpent:       NullHours(t.TimeSpent),
					Status:          t.Status,
				})
			}

			projectViews = append(projectViews, EmployeeProject{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				ClientName:  client.Name,
				Budget:      Money(p.Budget),
				Tasks:       taskViews,
			})
		}

		detail = &EmployeeDetail{
			Employee: newEmployeeView(*employee),
			Projects: projectViews,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) CreateEmployee(ctx context.Context, in EmployeeInput) (id int64, err error) {
	defer s.observe(ctx, "employee", "create", time.Now(), &err)

	name, err := in.validate()
	if err != nil {
		return 0, err
	}

	employee := &model.Employee{Name: name, HourlyWage: in.HourlyWage}
	if err = s.repo.CreateEmployee(ctx, employee); err != nil {
		return 0, err
	}

	s.publish(ctx, events.EmployeeCreated, employee.ID, map[string]any{
		"employee_name": employee.Name,
		"hourly_wage":   employee.HourlyWage.String(),
	})
	return employee.ID, nil
}

func (s *service) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (err error) {
	defer s.observe(ctx, "employee", "update", time.Now(), &err)

	name, err := in.validate()
	if err != nil {
		return err
	}

	employee := &model.Employee{ID: id, Name: name, HourlyWage: in.HourlyWage}
	if err = s.repo.UpdateEmployee(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("employee", id)
		}
		return err
	}

	s.publish(ctx, events.EmployeeUpdated, id, map[string]any{
		"employee_name": employee.Name,
		"hourly_wage":   employee.HourlyWage.String(),
	})
	return nil
}

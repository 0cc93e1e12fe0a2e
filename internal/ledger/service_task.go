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

type NewTaskInput struct {
	ProjectID       int64
	Name            string
	DifficultyLevel string
	EmployeeID      int64
	TimeSpent       decimal.Decimal
	Status          string
}

type TaskUpdateInput struct {
	Name      string
	TimeSpent decimal.Decimal
	Status    string
}

func parseStatus(s string) (model.Status, error) {
	st, err := model.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return st, nil
}

func (s *service) CreateTask(ctx context.Context, in NewTaskInput) (id int64, err error) {
	defer s.observe(ctx, "task", "create", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, invalid("task_name must not be blank")
	}
	if in.TimeSpent.IsNegative() {
		return 0, invalid("time_spent must not be negative")
	}
	difficulty, err := model.ParseDifficulty(in.DifficultyLevel)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return 0, err
	}

	task := &model.Task{
		ProjectID:       in.ProjectID,
		Name:            name,
		DifficultyLevel: difficulty,
		EmployeeID:      in.EmployeeID,
		TimeSpent:       decimal.NewNullDecimal(in.TimeSpent),
		Status:          status,
	}

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.GetProject(ctx, in.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return missingReference("project", in.ProjectID)
			}
			return err
		}
		if _, err := tx.GetEmployee(ctx, in.EmployeeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return missingReference("employee", in.EmployeeID)
			}
			return err
		}
		return tx.CreateTask(ctx, task)
	})
	if err != nil {
		return 0, err
	}

	s.publish(ctx, events.TaskCreated, task.ID, map[string]any{
		"project_id":  task.ProjectID,
		"employee_id": task.EmployeeID,
		"time_spent":  in.TimeSpent.String(),
		"status":      task.Status,
	})
	return task.ID, nil
}

// UpdateTask replaces name, time and status; project, employee and difficulty stay.
func (s *service) UpdateTask(ctx context.Context, id int64, in TaskUpdateInput) (err error) {
	defer s.observe(ctx, "task", "update", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("task_name must not be blank")
	}
	if in.TimeSpent.IsNegative() {
		return invalid("time_spent must not be negative")
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return err
	}

	var task *model.Task
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		task, err = tx.GetTask(ctx, id)
		if err != nil {
			return lookup(err, "task", id)
		}
		task.Name = name
		task.TimeSpent = decimal.NewNullDecimal(in.TimeSpent)
		task.Status = status
		return lookup(tx.UpdateTask(ctx, task), "task", id)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.TaskUpdated, id, map[string]any{
		"project_id": task.ProjectID,
		"time_spent": in.TimeSpent.String(),
		"status":     task.Status,
	})
	return nil
}

func (s *service) DeleteTask(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "task", "delete", time.Now(), &err)

	if err = s.repo.DeleteTask(ctx, id); err != nil {
		return lookup(err, "task", id)
	}

	s.logger.InfoContext(ctx, "task deleted successfully", "task_id", id)
	s.publish(ctx, events.TaskDeleted, id, nil)
	return nil
}

package ledger

import (
	"context"
	"time"

	"project-ledger/internal/events"
	"project-ledger/internal/model"
	"project-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

func (s *service) ListBudgets(ctx context.Context) (views []BudgetView, err error) {
	defer s.observe(ctx, "budget", "list", time.Now(), &err)

	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}

	views = make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, newBudgetView(b))
	}
	return views, nil
}

func (s *service) GetBudget(ctx context.Context, projectID int64) (view *BudgetView, err error) {
	defer s.observe(ctx, "budget", "get", time.Now(), &err)

	budget, err := s.repo.GetBudget(ctx, projectID)
	if err != nil {
		return nil, lookup(err, "project budget", projectID)
	}

	v := newBudgetView(*budget)
	return &v, nil
}

// SnapshotBudgets stores spent_budget rounded to cents and refreshes the
// stored project time_spent. Later task edits do not touch either value.
func (s *service) SnapshotBudgets(ctx context.Context) (written int, err error) {
	defer s.observe(ctx, "budget", "snapshot", time.Now(), &err)

	takenAt := s.now().UTC()
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		projects, err := tx.ListProjects(ctx)
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
		for _, p := range projects {
			rollup, err := RollupTasks(byProject[p.ID], employees)
			if err != nil {
				return err
			}

			budget := &model.ProjectBudget{
				ProjectID:       p.ID,
				AllocatedBudget: p.Budget,
				SpentBudget:     decimal.NewNullDecimal(rollup.AmountSpent.Round(2)),
				UpdatedAt:       takenAt,
			}
			if err := tx.UpsertBudget(ctx, budget); err != nil {
				return err
			}
			if err := tx.UpdateProjectTimeSpent(ctx, p.ID, rollup.TimeSpent); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.Ledger.RecordSnapshot(ctx, written)
	s.logger.InfoContext(ctx, "project budgets snapshotted", "projects", written, "taken_at", takenAt)
	s.publish(ctx, events.BudgetsSnapshotted, 0, map[string]any{"projects": written, "taken_at": takenAt})
	return written, nil
}

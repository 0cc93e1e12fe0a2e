package ledger

import (
	"context"
	"strings"
	"time"

	"project-ledger/internal/events"
	"project-ledger/internal/model"
	"project-ledger/internal/repository"
)

type ClientInput struct {
	Name string
}

func (s *service) ListClients(ctx context.Context) (views []ClientView, err error) {
	defer s.observe(ctx, "client", "list", time.Now(), &err)

	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	views = make([]ClientView, 0, len(clients))
	for _, c := range clients {
		views = append(views, newClientView(c))
	}
	return views, nil
}

func (s *service) GetClient(ctx context.Context, id int64) (detail *ClientDetail, err error) {
	defer s.observe(ctx, "client", "get", time.Now(), &err)

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		client, err := tx.GetClient(ctx, id)
		if err != nil {
			return lookup(err, "client", id)
		}
		projects, err := tx.ListProjectsByClient(ctx, id)
		if err != nil {
			return err
		}
		tasks, err := tx.ListTasksByProjects(ctx, projectIDs(projects))
		if err != nil {
			return err
		}

		byProject := groupByProject(tasks)
		projectViews := make([]ClientProject, 0, len(projects))
		for _, p := range projects {
			projectViews = append(projectViews, ClientProject{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				Budget:      Money(p.Budget),
				TimeSpent:   Hours(SumHours(byProject[p.ID])),
			})
		}

		detail = &ClientDetail{
			Client:   newClientView(*client),
			Projects: projectViews,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) CreateClient(ctx context.Context, in ClientInput) (id int64, err error) {
	defer s.observe(ctx, "client", "create", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, invalid("client_name must not be blank")
	}

	client := &model.Client{Name: name}
	if err = s.repo.CreateClient(ctx, client); err != nil {
		return 0, err
	}

	s.publish(ctx, events.ClientCreated, client.ID, map[string]any{"client_name": client.Name})
	return client.ID, nil
}

// DeleteClient removes the client, its projects and their tasks in one transaction.
func (s *service) DeleteClient(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "client", "delete", time.Now(), &err)

	var removedProjects, removedTasks int
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.GetClient(ctx, id); err != nil {
			return lookup(err, "client", id)
		}
		projects, err := tx.ListProjectsByClient(ctx, id)
		if err != nil {
			return err
		}
		if removedTasks, err = tx.DeleteTasksByProjects(ctx, projectIDs(projects)); err != nil {
			return err
		}
		if removedProjects, err = tx.DeleteProjectsByClient(ctx, id); err != nil {
			return err
		}
		return lookup(tx.DeleteClient(ctx, id), "client", id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "client and their projects deleted successfully",
		"client_id", id,
		"projects_deleted", removedProjects,
		"tasks_deleted", removedTasks,
	)
	s.publish(ctx, events.ClientDeleted, id, map[string]any{
		"projects_deleted": removedProjects,
		"tasks_deleted":    removedTasks,
	})
	return nil
}

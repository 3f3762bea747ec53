package projects

import "context"

// Repository defines data access for projects. Implementations only
// return active rows; archived projects behave as absent.
type Repository interface {
	Create(ctx context.Context, p Project) (*Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error)
}

package projects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batiwork/batiwork/internal/shared"
)

type mockRepository struct {
	projects map[int64]*Project
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{projects: make(map[int64]*Project), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, p Project) (*Project, error) {
	p.ID = m.nextID
	m.nextID++
	p.IsActive = true
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = &p
	copied := p
	return &copied, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Project, error) {
	p, ok := m.projects[id]
	if !ok || !p.IsActive {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	var out []Project
	for _, p := range m.projects {
		if p.ClientID != req.ClientID || !p.IsActive {
			continue
		}
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func TestCreateProject(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	project, err := svc.Create(context.Background(), CreateProjectRequest{
		Title: "Réfection toiture entrepôt",
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, project.Status)
	assert.Equal(t, int64(10), project.ClientID)
	assert.Equal(t, shared.DefaultCurrency, project.Currency)
}

func TestCreateProjectValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	start := time.Now()
	end := start.Add(-time.Hour)
	low, high := int64(500_000), int64(100_000)

	tests := []struct {
		name string
		req  CreateProjectRequest
	}{
		{"missing title", CreateProjectRequest{}},
		{"end before start", CreateProjectRequest{Title: "x", StartDate: &start, EndDate: &end}},
		{"budget max below min", CreateProjectRequest{Title: "x", BudgetMin: &low, BudgetMax: &high}},
		{"bad currency", CreateProjectRequest{Title: "x", Currency: "FRANCS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req, 10)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestGetProjectNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListProjectsByStatus(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProjectRequest{Title: "Chantier A"}, 10)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateProjectRequest{Title: "Chantier B"}, 10)
	require.NoError(t, err)
	repo.projects[created.ID].Status = StatusPublished

	status := StatusPublished
	items, meta, err := svc.List(context.Background(), ListProjectsRequest{
		ClientID: 10, Status: &status, Page: 1, PerPage: 20,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, 1, meta.Total)
}

package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batiwork/batiwork/internal/shared"
)

type mockRepository struct {
	quotes   map[int64]*Quote
	nextID   int64
	projects map[int64]bool
	clients  map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotes:   make(map[int64]*Quote),
		nextID:   1,
		projects: map[int64]bool{1: true},
		clients:  map[int64]bool{10: true},
	}
}

func (m *mockRepository) Create(ctx context.Context, q Quote) (*Quote, error) {
	q.ID = m.nextID
	m.nextID++
	q.IsActive = true
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quotes[q.ID] = &q
	copied := q
	return &copied, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, ok := m.quotes[id]
	if !ok || !q.IsActive {
		return nil, shared.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var out []Quote
	for _, q := range m.quotes {
		if q.ClientID == req.ClientID && q.IsActive {
			out = append(out, *q)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Accept(ctx context.Context, id int64, at time.Time) (bool, error) {
	q, ok := m.quotes[id]
	if !ok || !q.IsActive || q.IsAccepted {
		return false, nil
	}
	q.IsAccepted = true
	q.AcceptedAt = &at
	return true, nil
}

func (m *mockRepository) ProjectActive(ctx context.Context, projectID int64) (bool, error) {
	return m.projects[projectID], nil
}

func (m *mockRepository) ClientActive(ctx context.Context, clientID int64) (bool, error) {
	return m.clients[clientID], nil
}

func validCreateRequest() CreateQuoteRequest {
	return CreateQuoteRequest{
		ProjectID:   1,
		Title:       "Gros oeuvre villa Cocody",
		TotalAmount: 2_500_000_00,
	}
}

func TestCreateQuote(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	quote, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), quote.ProjectID)
	assert.Equal(t, int64(10), quote.ClientID)
	assert.Equal(t, shared.DefaultCurrency, quote.Currency)
	assert.False(t, quote.IsAccepted)
}

func TestCreateQuoteValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	tests := []struct {
		name   string
		mutate func(*CreateQuoteRequest)
		client int64
	}{
		{"zero amount", func(r *CreateQuoteRequest) { r.TotalAmount = 0 }, 10},
		{"negative amount", func(r *CreateQuoteRequest) { r.TotalAmount = -500 }, 10},
		{"missing title", func(r *CreateQuoteRequest) { r.Title = "" }, 10},
		{"unknown project", func(r *CreateQuoteRequest) { r.ProjectID = 99 }, 10},
		{"unknown client", func(r *CreateQuoteRequest) {}, 99},
		{"bad currency", func(r *CreateQuoteRequest) { r.Currency = "FRANCS" }, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req, tt.client)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestAcceptQuote(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), created.ID, 10)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)
	require.NotNil(t, accepted.AcceptedAt)
}

func TestAcceptQuoteAlreadyAccepted(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), created.ID, 10)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), created.ID, 10)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestAcceptQuoteWrongClient(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), created.ID, 77)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAcceptQuoteExpired(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	past := time.Now().Add(-48 * time.Hour)
	req := validCreateRequest()
	req.ValidUntil = &past

	created, err := svc.Create(context.Background(), req, 10)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), created.ID, 10)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestAcceptQuoteNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Accept(context.Background(), 404, 10)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

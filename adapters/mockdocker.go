package adapters

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/dockersweep/dockersweep/core/domain"
	"github.com/dockersweep/dockersweep/core/ports"
)

// Removal records one remove call observed by the mock.
type Removal struct {
	Kind  domain.Kind
	ID    string
	Force bool
}

// MockDockerAdapter implements ResourceCollector and ResourceRemover with
// canned records, to be used for tests.
type MockDockerAdapter struct {
	ContainerRecords []domain.ContainerRecord
	ImageRecords     []domain.ImageRecord
	ListErr          error
	RemoveErr        error

	mu      sync.Mutex
	removed []Removal
}

var _ ports.ResourceCollector = (*MockDockerAdapter)(nil)

var _ ports.ResourceRemover = (*MockDockerAdapter)(nil)

func NewMockDockerAdapter() *MockDockerAdapter {
	return &MockDockerAdapter{}
}

func (m *MockDockerAdapter) ListContainers(ctx context.Context) ([]domain.ContainerRecord, error) {
	_, span := otel.Tracer("").Start(ctx, "MockDockerAdapter.ListContainers")
	defer span.End()
	return m.ContainerRecords, m.ListErr
}

func (m *MockDockerAdapter) ListImages(ctx context.Context) ([]domain.ImageRecord, error) {
	_, span := otel.Tracer("").Start(ctx, "MockDockerAdapter.ListImages")
	defer span.End()
	return m.ImageRecords, m.ListErr
}

func (m *MockDockerAdapter) RemoveContainer(ctx context.Context, id string, force bool) error {
	m.record(Removal{Kind: domain.KindContainer, ID: id, Force: force})
	return m.RemoveErr
}

func (m *MockDockerAdapter) RemoveImage(ctx context.Context, id string, force bool) error {
	m.record(Removal{Kind: domain.KindImage, ID: id, Force: force})
	return m.RemoveErr
}

// Removed returns the remove calls in the order they happened.
func (m *MockDockerAdapter) Removed() []Removal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Removal, len(m.removed))
	copy(out, m.removed)
	return out
}

func (m *MockDockerAdapter) record(r Removal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, r)
}

package ports

import (
	"context"

	"github.com/dockersweep/dockersweep/core/domain"
)

// ResourceCollector is the port implemented by adapters to enumerate the
// full set of raw container and image records for one run.
type ResourceCollector interface {
	ListContainers(ctx context.Context) ([]domain.ContainerRecord, error)
	ListImages(ctx context.Context) ([]domain.ImageRecord, error)
}

// ResourceRemover is the port implemented by adapters to execute delete
// decisions. The force flag is passed through to the underlying remove
// operation.
type ResourceRemover interface {
	RemoveContainer(ctx context.Context, id string, force bool) error
	RemoveImage(ctx context.Context, id string, force bool) error
}

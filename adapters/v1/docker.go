package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/eapache/go-resiliency/deadline"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel"

	"github.com/dockersweep/dockersweep/core/domain"
	"github.com/dockersweep/dockersweep/core/ports"
)

// DockerAdapter implements ResourceCollector and ResourceRemover over the
// Docker Engine API. Inspection data is kept in its raw nested form so the
// rule language sees exactly the `docker inspect` shape.
type DockerAdapter struct {
	client        *client.Client
	removeTimeout time.Duration
}

var _ ports.ResourceCollector = (*DockerAdapter)(nil)

var _ ports.ResourceRemover = (*DockerAdapter)(nil)

// NewDockerAdapter initializes the DockerAdapter. An empty host falls back
// to the environment (DOCKER_HOST et al.).
func NewDockerAdapter(host string, removeTimeout time.Duration) (*DockerAdapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &DockerAdapter{client: cli, removeTimeout: removeTimeout}, nil
}

func (a *DockerAdapter) ListContainers(ctx context.Context) ([]domain.ContainerRecord, error) {
	ctx, span := otel.Tracer("").Start(ctx, "DockerAdapter.ListContainers")
	defer span.End()

	summaries, err := a.client.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}

	records := make([]domain.ContainerRecord, 0, len(summaries))
	for _, s := range summaries {
		_, raw, err := a.client.ContainerInspectWithRaw(ctx, s.ID, false)
		if err != nil {
			return nil, fmt.Errorf("inspecting container %s: %w", s.ID, err)
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decoding inspect data for container %s: %w", s.ID, err)
		}
		records = append(records, domain.ContainerRecord{Data: data})
	}
	logger.L().Debug("containers listed", helpers.Int("count", len(records)))
	return records, nil
}

func (a *DockerAdapter) ListImages(ctx context.Context) ([]domain.ImageRecord, error) {
	ctx, span := otel.Tracer("").Start(ctx, "DockerAdapter.ListImages")
	defer span.End()

	summaries, err := a.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	records := make([]domain.ImageRecord, 0, len(summaries))
	for _, s := range summaries {
		_, raw, err := a.client.ImageInspectWithRaw(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("inspecting image %s: %w", s.ID, err)
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decoding inspect data for image %s: %w", s.ID, err)
		}
		repo, tag := splitRepoTag(s.RepoTags)
		records = append(records, domain.ImageRecord{Data: data, Repository: repo, Tag: tag})
	}
	logger.L().Debug("images listed", helpers.Int("count", len(records)))
	return records, nil
}

// RemoveContainer removes a container, passing the force flag through to
// the daemon. A deadline prevents a wedged daemon from hanging the run.
func (a *DockerAdapter) RemoveContainer(ctx context.Context, id string, force bool) error {
	ctx, span := otel.Tracer("").Start(ctx, "DockerAdapter.RemoveContainer")
	defer span.End()

	dl := deadline.New(a.removeTimeout)
	err := dl.Run(func(<-chan struct{}) error {
		return a.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
	})
	if err != nil {
		return fmt.Errorf("removing container %s: %w", id, err)
	}
	return nil
}

// RemoveImage removes an image, passing the force flag through.
func (a *DockerAdapter) RemoveImage(ctx context.Context, id string, force bool) error {
	ctx, span := otel.Tracer("").Start(ctx, "DockerAdapter.RemoveImage")
	defer span.End()

	dl := deadline.New(a.removeTimeout)
	err := dl.Run(func(<-chan struct{}) error {
		_, err := a.client.ImageRemove(ctx, id, image.RemoveOptions{Force: force})
		return err
	})
	if err != nil {
		return fmt.Errorf("removing image %s: %w", id, err)
	}
	return nil
}

// splitRepoTag extracts repository and tag from the first listing entry;
// <none> placeholders map to empty strings. The repository may itself
// contain colons (registry ports), so the split is on the last one.
func splitRepoTag(repoTags []string) (string, string) {
	if len(repoTags) == 0 {
		return "", ""
	}
	full := repoTags[0]
	i := strings.LastIndex(full, ":")
	if i < 0 {
		return noneToEmpty(full), ""
	}
	return noneToEmpty(full[:i]), noneToEmpty(full[i+1:])
}

func noneToEmpty(s string) string {
	if s == domain.NullValue {
		return ""
	}
	return s
}

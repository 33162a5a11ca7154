package repositories

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel"

	"github.com/dockersweep/dockersweep/core/domain"
)

// Snapshot is the arena holding every container and image ResourceValue for
// one run. Cross-references between the two kinds (Container.Image,
// Image.Containers) are stored as Refs and resolved as lookups into this
// arena, so there are no owning pointer cycles. All decisions are computed
// against one Snapshot before any deletion is executed.
type Snapshot struct {
	containers []*domain.ResourceValue
	images     []*domain.ResourceValue
	byRef      map[domain.Ref]*domain.ResourceValue
}

var _ domain.Resolver = (*Snapshot)(nil)

// NewSnapshot builds the arena from raw records. Container enumeration must
// be complete before it runs: Image.Containers and Image.Dangling depend on
// the full container set.
func NewSnapshot(ctx context.Context, containers []domain.ContainerRecord, images []domain.ImageRecord) (*Snapshot, error) {
	_, span := otel.Tracer("").Start(ctx, "NewSnapshot")
	defer span.End()

	s := &Snapshot{byRef: map[domain.Ref]*domain.ResourceValue{}}

	for _, rec := range images {
		rv, err := buildImage(rec)
		if err != nil {
			return nil, err
		}
		s.images = append(s.images, rv)
		s.byRef[rv.Ref()] = rv
	}
	for _, rec := range containers {
		rv, err := buildContainer(rec)
		if err != nil {
			return nil, err
		}
		s.containers = append(s.containers, rv)
		s.byRef[rv.Ref()] = rv
	}

	s.crossReference()
	s.finalizeImages()
	return s, nil
}

// Containers returns the container values in enumeration order.
func (s *Snapshot) Containers() []*domain.ResourceValue {
	return s.containers
}

// Images returns the image values in enumeration order.
func (s *Snapshot) Images() []*domain.ResourceValue {
	return s.images
}

// Resolve implements domain.Resolver.
func (s *Snapshot) Resolve(ref domain.Ref) (*domain.ResourceValue, bool) {
	rv, ok := s.byRef[ref]
	return rv, ok
}

func buildImage(rec domain.ImageRecord) (*domain.ResourceValue, error) {
	rv := domain.NewResourceValue(domain.KindImage, rec.Data)
	if rv.ID() == "" {
		return nil, fmt.Errorf("image record has no Id")
	}

	repo, tag := rec.Repository, rec.Tag
	if repo == "" {
		repo = domain.NullValue
	}
	if tag == "" {
		tag = domain.NullValue
	}
	rv.Set("Repository", repo)
	rv.Set("Tag", tag)
	rv.Set("Name", repo+":"+tag)
	rv.Set("Containers", mapset.NewSet[domain.Ref]())
	rv.Set("Dangling", false)

	fixupDate(rec.Data, "Created")
	return rv, nil
}

func buildContainer(rec domain.ContainerRecord) (*domain.ResourceValue, error) {
	rv := domain.NewResourceValue(domain.KindContainer, rec.Data)
	if rv.ID() == "" {
		return nil, fmt.Errorf("container record has no Id")
	}

	// `docker inspect` reports container names with a leading slash that the
	// docker CLI never shows.
	if name, ok := rec.Data["Name"].(string); ok {
		rv.Set("Name", strings.TrimPrefix(name, "/"))
	}

	fixupDate(rec.Data, "Created")
	if state, ok := rec.Data["State"].(map[string]any); ok {
		fixupDate(state, "StartedAt")
		fixupDate(state, "FinishedAt")
	}
	return rv, nil
}

// crossReference replaces each container's raw image identifier with a Ref
// into the arena and registers the container on the image's Containers set.
// A container whose image is gone keeps a nil Image attribute.
func (s *Snapshot) crossReference() {
	for _, c := range s.containers {
		imageID, _ := c.Get("Image")
		id, ok := imageID.(string)
		if !ok || id == "" {
			c.Set("Image", nil)
			continue
		}
		ref := domain.Ref{Kind: domain.KindImage, ID: id}
		img, ok := s.byRef[ref]
		if !ok {
			c.Set("Image", nil)
			continue
		}
		c.Set("Image", ref)
		if set, ok := img.Get("Containers"); ok {
			set.(domain.RefSet).Add(c.Ref())
		}
	}
}

// finalizeImages computes Dangling once the full container set is known: an
// image is dangling iff no container references it and both Repository and
// Tag are the <none> placeholder.
func (s *Snapshot) finalizeImages() {
	for _, img := range s.images {
		repo, _ := img.Get("Repository")
		tag, _ := img.Get("Tag")
		set, _ := img.Get("Containers")
		dangling := set.(domain.RefSet).Cardinality() == 0 &&
			repo == domain.NullValue && tag == domain.NullValue
		img.Set("Dangling", dangling)
	}
}

// fixupDate replaces m[key] with its DateTime equivalent; unparseable
// timestamps become nil.
func fixupDate(m map[string]any, key string) {
	s, ok := m[key].(string)
	if !ok {
		return
	}
	if dt, ok := domain.ParseDockerDate(s); ok {
		m[key] = dt
	} else {
		m[key] = nil
	}
}

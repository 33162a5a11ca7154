package domain

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// NullValue is the placeholder Docker prints for a missing repository or tag.
const NullValue = "<none>"

// shortIDLen is the length of the identifier prefix shown to users.
const shortIDLen = 12

// Kind discriminates the two resource types under evaluation.
type Kind int

const (
	KindContainer Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "container"
}

// Var returns the top-level name rules of this kind may reference in their
// condition expression.
func (k Kind) Var() string {
	if k == KindImage {
		return "Image"
	}
	return "Container"
}

// Action is the outcome selected for a resource.
type Action int

const (
	Keep Action = iota
	Delete
)

func (a Action) String() string {
	if a == Delete {
		return "delete"
	}
	return "keep"
}

// Decision is the final outcome computed for one resource in one run.
type Decision struct {
	Resource *ResourceValue
	Action   Action
	Force    bool
}

func (d Decision) String() string {
	verb := "Keeping"
	switch {
	case d.Action == Delete && d.Force:
		verb = "Force deleting"
	case d.Action == Delete:
		verb = "Deleting"
	}
	return fmt.Sprintf("%s %s.", verb, d.Resource)
}

// Ref identifies a resource inside the snapshot arena. Cross-references
// between containers and images are stored as Refs and resolved through a
// Resolver, never as direct pointers, so the two kinds carry no ownership
// cycle.
type Ref struct {
	Kind Kind
	ID   string
}

// Resolver resolves a Ref into the ResourceValue it points to.
type Resolver interface {
	Resolve(Ref) (*ResourceValue, bool)
}

// RefSet holds the containers referencing an image.
type RefSet = mapset.Set[Ref]

// ResourceValue is a read-only nested mapping describing one container or
// image. Attributes are set while the snapshot is built and never mutated
// afterwards; evaluation only reads them.
type ResourceValue struct {
	kind  Kind
	attrs map[string]any
}

func NewResourceValue(kind Kind, attrs map[string]any) *ResourceValue {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &ResourceValue{kind: kind, attrs: attrs}
}

func (r *ResourceValue) Kind() Kind {
	return r.kind
}

// Get looks up a top-level attribute.
func (r *ResourceValue) Get(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Set stores an attribute. Only the snapshot builder may call it; once a
// resource is handed to the decision engine it is read-only.
func (r *ResourceValue) Set(name string, value any) {
	r.attrs[name] = value
}

// ID returns the full Docker identifier of the resource.
func (r *ResourceValue) ID() string {
	if id, ok := r.attrs["Id"].(string); ok {
		return id
	}
	return ""
}

// ShortID returns the fixed-length identifier prefix used in display lines.
func (r *ResourceValue) ShortID() string {
	id := r.ID()
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func (r *ResourceValue) Name() string {
	if name, ok := r.attrs["Name"].(string); ok {
		return name
	}
	return ""
}

func (r *ResourceValue) Ref() Ref {
	return Ref{Kind: r.kind, ID: r.ID()}
}

func (r *ResourceValue) String() string {
	return fmt.Sprintf("%s %s (%s)", r.kind, r.Name(), r.ShortID())
}

// ContainerRecord is the raw `docker inspect` data for one container.
type ContainerRecord struct {
	Data map[string]any
}

// ImageRecord is the raw `docker inspect` data for one image, together with
// the repository and tag reported by the image listing. Repository and Tag
// are empty when Docker reports the <none> placeholder.
type ImageRecord struct {
	Data       map[string]any
	Repository string
	Tag        string
}

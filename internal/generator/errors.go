package generator

import (
	"fmt"

	"github.com/Faultbox/cavegen/internal/config"
)

// Phase names a step of a generation pass.
type Phase string

const (
	PhaseFill        Phase = "fill"
	PhaseExtract     Phase = "extract"
	PhaseAssemble    Phase = "assemble"
	PhaseScatter     Phase = "scatter"
	PhaseRender      Phase = "render"
	PhaseInstantiate Phase = "instantiate"
)

// ConfigurationError is returned before any work starts when the
// configuration is unusable.
type ConfigurationError = config.ConfigurationError

// CollaboratorError wraps a failure of an injected collaborator. Index is
// the voxel, firefly candidate or placement being processed, or -1 when
// the call was not per item. Failures are never retried.
type CollaboratorError struct {
	Phase Phase
	Index int
	Err   error
}

func (e *CollaboratorError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("generator: %s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("generator: %s: item %d: %v", e.Phase, e.Index, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// WarningKind classifies non-fatal findings.
type WarningKind string

const (
	// WarnIsovalueRange: the isovalue lies outside the sampled field range,
	// so the surface is likely empty.
	WarnIsovalueRange WarningKind = "isovalue_out_of_range"
	// WarnNoTriangles: extraction produced an empty mesh.
	WarnNoTriangles WarningKind = "no_triangles"
	// WarnDegenerate: zero-area triangles were dropped during extraction.
	WarnDegenerate WarningKind = "degenerate_triangles"
	// WarnFallbackNormals: some vertex normals came from triangle winding
	// because the field gradient vanished there.
	WarnFallbackNormals WarningKind = "fallback_normals"
)

// Warning is a non-fatal finding reported with the result.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Message
}

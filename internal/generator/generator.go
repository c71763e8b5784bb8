// Package generator runs a full terrain pass: field fill, isosurface
// extraction, mesh assembly and object scattering.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/cavegen/internal/config"
	"github.com/Faultbox/cavegen/internal/engine/picking"
	"github.com/Faultbox/cavegen/internal/engine/terrain"
	"github.com/Faultbox/cavegen/internal/logger"
	"github.com/Faultbox/cavegen/internal/noise"
	"github.com/Faultbox/cavegen/internal/scatter"
	"github.com/Faultbox/cavegen/pkg/isosurface"
	"github.com/Faultbox/cavegen/pkg/math"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

// Deps holds optional collaborators. Nil fields get defaults: fractal
// Perlin noise for the sampler, a ray test against the generated mesh for
// the occluder, and the global logger.
type Deps struct {
	Sampler  voxel.Sampler
	Occluder scatter.Occluder
	Logger   *zap.Logger
}

// Stats summarizes a pass.
type Stats struct {
	Seed       int64
	FieldMin   float32
	FieldMax   float32
	Extraction isosurface.Stats
	Scatter    scatter.Stats
	Durations  map[Phase]time.Duration
}

// Result is everything a pass produces.
type Result struct {
	Field      *voxel.Field
	Mesh       *terrain.Mesh
	Placements []scatter.Placement
	Warnings   []Warning
	Stats      Stats
}

// HasWarning reports whether a warning of kind k was raised.
func (r *Result) HasWarning(k WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == k {
			return true
		}
	}
	return false
}

type run struct {
	cfg *config.Config
	log *zap.Logger
	res *Result
}

// Generate runs one pass. The configuration is validated before any
// collaborator is called. ctx is checked between phases and inside the
// scattering loops.
func Generate(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	if cfg == nil {
		return nil, &ConfigurationError{Problems: []string{"nil configuration"}}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := cfg.Mode()
	scatterCfg, _ := cfg.ScatterSettings()

	r := &run{
		cfg: cfg,
		log: deps.Logger,
		res: &Result{Stats: Stats{Durations: make(map[Phase]time.Duration)}},
	}
	if r.log == nil {
		r.log = logger.Named("generator")
	}

	seed := time.Now().UnixNano()
	if cfg.Scatter.Seed != nil {
		seed = *cfg.Scatter.Seed
	} else {
		r.log.Info("no seed configured, picked one", zap.Int64("seed", seed))
	}
	r.res.Stats.Seed = seed

	sampler := deps.Sampler
	if sampler == nil {
		fractal, err := noise.NewFractal(cfg.NoiseSettings(), seed)
		if err != nil {
			return nil, &ConfigurationError{Problems: []string{err.Error()}}
		}
		sampler = fractal
	}

	r.log.Info("generation started",
		zap.Int("width", cfg.Grid.Width),
		zap.Int("height", cfg.Grid.Height),
		zap.Int("depth", cfg.Grid.Depth),
		zap.Stringer("mode", mode),
		zap.Float32("isovalue", cfg.Extraction.Isovalue),
		zap.Int64("seed", seed))

	if err := r.phase(ctx, PhaseFill, func() error { return r.fill(sampler) }); err != nil {
		return nil, err
	}

	var raw *isosurface.RawMesh
	if err := r.phase(ctx, PhaseExtract, func() (err error) {
		raw, err = r.extract(mode)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.phase(ctx, PhaseAssemble, func() error { return r.assemble(raw) }); err != nil {
		return nil, err
	}

	if err := r.phase(ctx, PhaseScatter, func() error {
		return r.scatter(ctx, scatterCfg, deps.Occluder, seed)
	}); err != nil {
		return nil, err
	}

	r.log.Info("generation finished",
		zap.Int("vertices", r.res.Mesh.VertexCount()),
		zap.Int("triangles", r.res.Mesh.TriangleCount()),
		zap.Int("placements", len(r.res.Placements)),
		zap.Int("warnings", len(r.res.Warnings)))
	return r.res, nil
}

// phase checks ctx, runs fn and records its duration.
func (r *run) phase(ctx context.Context, p Phase, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generator: before %s: %w", p, err)
	}
	start := time.Now()
	r.log.Debug("phase started", zap.String("phase", string(p)))
	if err := fn(); err != nil {
		r.log.Error("phase failed", zap.String("phase", string(p)), zap.Error(err))
		return err
	}
	d := time.Since(start)
	r.res.Stats.Durations[p] = d
	r.log.Debug("phase finished", zap.String("phase", string(p)), zap.Duration("took", d))
	return nil
}

func (r *run) warn(kind WarningKind, format string, args ...any) {
	w := Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
	r.res.Warnings = append(r.res.Warnings, w)
	r.log.Warn(w.Message, zap.String("kind", string(kind)))
}

func (r *run) fill(sampler voxel.Sampler) error {
	g := r.cfg.Grid
	field, err := voxel.NewField(g.Width, g.Height, g.Depth)
	if err != nil {
		return &ConfigurationError{Problems: []string{err.Error()}}
	}
	if err := field.Fill(sampler); err != nil {
		var se *voxel.SampleError
		if errors.As(err, &se) {
			return &CollaboratorError{Phase: PhaseFill, Index: se.Index, Err: se.Err}
		}
		return &CollaboratorError{Phase: PhaseFill, Index: -1, Err: err}
	}
	r.res.Field = field

	lo, hi := field.Range()
	r.res.Stats.FieldMin, r.res.Stats.FieldMax = lo, hi
	if iso := r.cfg.Extraction.Isovalue; iso < lo || iso > hi {
		r.warn(WarnIsovalueRange, "isovalue %g outside field range [%g, %g]", iso, lo, hi)
	}
	r.log.Debug("field filled", zap.Int("voxels", field.Len()), zap.Float32("min", lo), zap.Float32("max", hi))
	return nil
}

func (r *run) extract(mode isosurface.Mode) (*isosurface.RawMesh, error) {
	ex, err := isosurface.New(mode)
	if err != nil {
		return nil, &ConfigurationError{Problems: []string{err.Error()}}
	}
	raw, err := ex.Generate(r.res.Field, r.cfg.Extraction.Isovalue)
	if err != nil {
		return nil, fmt.Errorf("generator: %s: %w", PhaseExtract, err)
	}
	st := raw.Stats
	r.res.Stats.Extraction = st
	if st.Degenerate > 0 {
		r.warn(WarnDegenerate, "dropped %d zero-area triangles", st.Degenerate)
	}
	if raw.TriangleCount() == 0 {
		r.warn(WarnNoTriangles, "extraction produced no triangles")
	}
	r.log.Info("surface extracted",
		zap.Stringer("mode", mode),
		zap.Int("cells", st.Cells),
		zap.Int("crossed", st.Crossed),
		zap.Int("triangles", st.Triangles))
	return raw, nil
}

func (r *run) assemble(raw *isosurface.RawMesh) error {
	mesh, err := terrain.Assemble(raw, r.res.Field, terrain.Options{SmoothFallback: r.cfg.Assembly.SmoothFallback})
	if err != nil {
		return fmt.Errorf("generator: %s: %w", PhaseAssemble, err)
	}
	if mesh.FallbackNormals > 0 {
		r.warn(WarnFallbackNormals, "%d vertices had no field gradient; used face normals", mesh.FallbackNormals)
	}
	r.res.Mesh = mesh
	return nil
}

func (r *run) scatter(ctx context.Context, cfg scatter.Config, occ scatter.Occluder, seed int64) error {
	mesh := r.res.Mesh
	if occ == nil {
		occ = picking.NewMeshOccluder(mesh)
	}
	positions := make([]math.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = v.Position
	}
	surface := scatter.Surface{
		Positions: positions,
		Normals:   mesh.Normals(),
		Offset:    mesh.Origin,
	}

	res, err := scatter.Scatter(ctx, surface, cfg, occ, rand.New(rand.NewSource(seed)))
	if err != nil {
		var oe *scatter.OccluderError
		if errors.As(err, &oe) {
			return &CollaboratorError{Phase: PhaseScatter, Index: oe.Index, Err: oe.Err}
		}
		return fmt.Errorf("generator: %s: %w", PhaseScatter, err)
	}
	r.res.Placements = res.Placements()
	r.res.Stats.Scatter = res.Stats

	fields := make([]zap.Field, 0, len(scatter.Categories))
	for _, cat := range scatter.Categories {
		fields = append(fields, zap.Int(cat.String(), res.Stats[cat].Placed))
	}
	r.log.Info("objects scattered", fields...)
	return nil
}

// Package pipeline orchestrates one model-building run as a sequence
// of processing stages: discovery, per-namespace construction and
// patching (parallel), cross-namespace resolution, conflict detection.
// The stage boundary between construction and resolution is a
// synchronization barrier: once every namespace exists, all tables are
// immutable except for the two bounded passes the later stages
// perform.
package pipeline

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/gircore/girbind/internal/conflicts"
	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/gir"
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/patches"
	"github.com/gircore/girbind/internal/registry"
	"github.com/gircore/girbind/internal/resolver"
)

var log = commonlog.GetLogger("girbind.pipeline")

// Run carries the state threaded through the stages of one run.
type Run struct {
	Config *registry.Config
	Hooks  *patches.Registry
	Diags  *diagnostics.Collector

	Groups    []*registry.Group
	LoadOrder []registry.Discovery
	Universe  *model.Universe
	Conflicts []conflicts.Record
}

// Result is what the run hands to the rendering collaborator: the
// resolved namespace graph, the ranked load order, the group states
// for diagnostic reporting and the full diagnostic stream.
type Result struct {
	Universe  *model.Universe
	LoadOrder []registry.Discovery
	Groups    []*registry.Group
	Conflicts []conflicts.Record
	Report    diagnostics.Report
}

// Processor is one stage of the pipeline. A returned error is fatal
// and aborts the run; recoverable conditions go into the diagnostic
// stream instead.
type Processor interface {
	Name() string
	Process(ctx context.Context, run *Run) error
}

// Pipeline executes processors in order.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

func (p *Pipeline) Run(ctx context.Context, run *Run) error {
	for _, proc := range p.processors {
		log.Debugf("stage %s", proc.Name())
		if err := proc.Process(ctx, run); err != nil {
			return fmt.Errorf("stage %s: %w", proc.Name(), err)
		}
	}
	return nil
}

// Execute builds the default pipeline and runs it to a Result.
func Execute(ctx context.Context, cfg *registry.Config, hooks *patches.Registry) (*Result, error) {
	run := &Run{
		Config:   cfg,
		Hooks:    hooks,
		Diags:    diagnostics.NewCollector(),
		Universe: model.NewUniverse(),
	}
	p := New(
		&DiscoverProcessor{},
		&BuildProcessor{},
		&ResolveProcessor{},
		&ConflictProcessor{},
	)
	if err := p.Run(ctx, run); err != nil {
		return nil, err
	}
	return &Result{
		Universe:  run.Universe,
		LoadOrder: run.LoadOrder,
		Groups:    run.Groups,
		Conflicts: run.Conflicts,
		Report:    diagnostics.NewReport(run.Diags),
	}, nil
}

// DiscoverProcessor resolves the module groups and their load order.
type DiscoverProcessor struct{}

func (*DiscoverProcessor) Name() string { return "discover" }

func (*DiscoverProcessor) Process(ctx context.Context, run *Run) error {
	reg, err := registry.New(run.Config, run.Diags)
	if err != nil {
		return err
	}
	defer reg.Close()

	discoveries, err := reg.Discover()
	if err != nil {
		return err
	}
	run.Groups = reg.GroupAll(discoveries)
	order, err := reg.LoadOrder(run.Groups)
	if err != nil {
		// A dependency cycle makes the whole run unsatisfiable.
		return err
	}
	run.LoadOrder = order
	return nil
}

// BuildProcessor decodes every namespace in the load order, builds its
// symbol table and applies its patch hooks. Namespaces are independent
// until the resolution barrier, so the work runs on a worker pool.
type BuildProcessor struct{}

func (*BuildProcessor) Name() string { return "build" }

func (*BuildProcessor) Process(ctx context.Context, run *Run) error {
	built := make([]*model.Namespace, len(run.LoadOrder))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range run.LoadOrder {
		i, d := i, d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			repo, err := gir.DecodeFile(d.Path)
			if err != nil {
				return fmt.Errorf("building %s: %w", d.Unit(), err)
			}
			ns := model.Build(repo)
			if run.Hooks != nil {
				run.Hooks.Apply(ns, run.Diags)
			}
			built[i] = ns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Barrier: registration happens single-threaded, in load order.
	for _, ns := range built {
		run.Universe.Add(ns)
	}
	return nil
}

// ResolveProcessor fills every type slot across the universe.
type ResolveProcessor struct{}

func (*ResolveProcessor) Name() string { return "resolve" }

func (*ResolveProcessor) Process(ctx context.Context, run *Run) error {
	resolver.New(run.Universe, run.Diags).ResolveAll()
	return nil
}

// ConflictProcessor classifies member collisions across the resolved
// universe.
type ConflictProcessor struct{}

func (*ConflictProcessor) Name() string { return "conflicts" }

func (*ConflictProcessor) Process(ctx context.Context, run *Run) error {
	run.Conflicts = conflicts.New(run.Universe, run.Diags).DetectAll()
	log.Infof("classified %d member conflicts", len(run.Conflicts))
	return nil
}

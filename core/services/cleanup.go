package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aquilax/truncate"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel"

	"github.com/dockersweep/dockersweep/core/domain"
	"github.com/dockersweep/dockersweep/core/ports"
	"github.com/dockersweep/dockersweep/core/rules"
	"github.com/dockersweep/dockersweep/repositories"
)

const ruleLogWidth = 50

// CleanupService implements CleanupService from ports, this is the business
// component driving one evaluation run: parse the rule file once, snapshot
// all containers and images, compute every decision against that fixed
// snapshot, then report and execute deletions sequentially.
type CleanupService struct {
	collector   ports.ResourceCollector
	remover     ports.ResourceRemover
	out         io.Writer
	dryRun      bool
	concurrency int
}

var _ ports.CleanupService = (*CleanupService)(nil)

// NewCleanupService initializes the CleanupService with all injected
// dependencies. out receives the per-resource decision lines.
func NewCleanupService(collector ports.ResourceCollector, remover ports.ResourceRemover, out io.Writer, dryRun bool, concurrency int) *CleanupService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CleanupService{
		collector:   collector,
		remover:     remover,
		out:         out,
		dryRun:      dryRun,
		concurrency: concurrency,
	}
}

// Run implements the cleanup flow. Any lex, parse or evaluation error aborts
// the run before a single deletion; removal failures are reported
// per-resource and do not stop later removals.
func (s *CleanupService) Run(ctx context.Context, rulesSource string) error {
	ctx, span := otel.Tracer("").Start(ctx, "CleanupService.Run")
	defer span.End()

	runID, err := uuid.NewRandom()
	if err != nil {
		logger.L().Ctx(ctx).Error("error generating runID", helpers.Error(err))
	}

	ruleList, err := rules.Parse(rulesSource)
	if err != nil {
		return fmt.Errorf("parsing rules: %w", err)
	}
	logger.L().Info("rules parsed",
		helpers.String("runID", runID.String()),
		helpers.Int("rules", len(ruleList)))
	for i := range ruleList {
		logger.L().Debug("loaded rule",
			helpers.Int("index", i),
			helpers.String("rule", truncate.Truncate(ruleList[i].Text, ruleLogWidth, "...", truncate.PositionEnd)))
	}

	// Containers must be enumerated before images: Image.Containers and
	// Image.Dangling need the complete container set.
	containerRecords, err := s.collector.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("listing containers: %w", err)
	}
	imageRecords, err := s.collector.ListImages(ctx)
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}

	snapshot, err := repositories.NewSnapshot(ctx, containerRecords, imageRecords)
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}
	logger.L().Info("snapshot built",
		helpers.String("runID", runID.String()),
		helpers.Int("containers", len(snapshot.Containers())),
		helpers.Int("images", len(snapshot.Images())))

	// One "now" per run: all relative date thresholds agree.
	env := rules.Env{Now: time.Now().UTC(), Resolver: snapshot}

	resources := make([]*domain.ResourceValue, 0, len(snapshot.Containers())+len(snapshot.Images()))
	resources = append(resources, snapshot.Containers()...)
	resources = append(resources, snapshot.Images()...)
	decisions, err := s.decide(ruleList, resources, env)
	if err != nil {
		return err
	}

	var result error
	for _, d := range decisions {
		fmt.Fprintln(s.out, d)
		if d.Action != domain.Delete || s.dryRun {
			continue
		}
		if err := s.remove(ctx, d); err != nil {
			logger.L().Ctx(ctx).Error("removal failed",
				helpers.String("resource", d.Resource.String()),
				helpers.Error(err))
			result = multierror.Append(result, err)
		}
	}
	return result
}

// decide evaluates all resources against the rule list on a bounded worker
// pool. Resources and rules are read-only and now is fixed, so concurrent
// evaluation needs no coordination; results keep enumeration order.
func (s *CleanupService) decide(ruleList []rules.Rule, resources []*domain.ResourceValue, env rules.Env) ([]domain.Decision, error) {
	decisions := make([]domain.Decision, len(resources))
	errs := make([]error, len(resources))

	wp := workerpool.New(s.concurrency)
	for i := range resources {
		i := i
		wp.Submit(func() {
			decisions[i], errs[i] = rules.Decide(ruleList, resources[i], env)
		})
	}
	wp.StopWait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return decisions, nil
}

func (s *CleanupService) remove(ctx context.Context, d domain.Decision) error {
	if d.Resource.Kind() == domain.KindImage {
		return s.remover.RemoveImage(ctx, d.Resource.ID(), d.Force)
	}
	return s.remover.RemoveContainer(ctx, d.Resource.ID(), d.Force)
}

package service

import (
	"context"
	"fmt"
	"time"

	"chart-annotator/config"
	"chart-annotator/internal/dto"
	"chart-annotator/internal/renderer"
	"chart-annotator/internal/repository"
	"chart-annotator/pkg/cache"
	"chart-annotator/pkg/common"
	"chart-annotator/pkg/logger"
	"chart-annotator/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxBatchConcurrency = 4

// BatchInput is one item of a batch annotate call. Name is only used to
// address the result and in logs.
type BatchInput struct {
	Name        string
	RawAnalysis []byte
	Image       []byte
	Theme       dto.Theme
}

type AnnotateService interface {
	// AnnotateImage runs validate → plan → render on caller-supplied inputs.
	AnnotateImage(ctx context.Context, rawAnalysis []byte, image []byte, theme dto.Theme) (*dto.AnnotateResult, error)
	// PlanOnly runs validate → plan without touching any image.
	PlanOnly(ctx context.Context, rawAnalysis []byte, theme dto.Theme) (*dto.AnnotateResult, error)
	// AnnotateSymbol drives the collaborators: fetch the chart, get the raw
	// analysis from the inference service, then annotate.
	AnnotateSymbol(ctx context.Context, symbol, interval string, theme dto.Theme) (*dto.AnnotateResult, error)
	// AnnotateBatch annotates independent inputs concurrently. Results keep
	// input order; the first failure cancels the rest.
	AnnotateBatch(ctx context.Context, inputs []BatchInput) ([]*dto.AnnotateResult, error)
}

type annotateService struct {
	cfg           *config.Config
	log           *logger.Logger
	validator     *AnalysisValidator
	planner       *AnnotationPlanner
	renderer      *renderer.Renderer
	repo          *repository.Repository
	inmemoryCache cache.Cache
}

func NewAnnotateService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	rend *renderer.Renderer,
) AnnotateService {
	return &annotateService{
		cfg:           cfg,
		log:           log,
		validator:     NewAnalysisValidator(cfg.Annotation, log),
		planner:       NewAnnotationPlanner(cfg.Annotation, log),
		renderer:      rend,
		repo:          repo,
		inmemoryCache: inmemoryCache,
	}
}

func (s *annotateService) AnnotateImage(ctx context.Context, rawAnalysis []byte, image []byte, theme dto.Theme) (*dto.AnnotateResult, error) {
	requestID := uuid.NewString()
	log := s.log.With(logger.StringField("request_id", requestID))
	ctx = logger.NewContext(ctx, log)

	start := time.Now()

	analysis := s.validator.Validate(rawAnalysis)
	plan := s.planner.Plan(analysis, theme)

	rendered, err := s.renderer.Render(image, plan, analysis)
	if err != nil {
		log.ErrorContext(ctx, "Failed to render annotations", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to render annotations: %w", err)
	}

	log.InfoContext(ctx, "Annotated chart",
		logger.IntField("levels", len(analysis.Levels)),
		logger.IntField("marks", len(plan.Marks)),
		logger.Field("elapsed", time.Since(start)),
	)

	return &dto.AnnotateResult{
		Analysis: analysis,
		Plan:     plan,
		Image:    rendered,
	}, nil
}

func (s *annotateService) PlanOnly(ctx context.Context, rawAnalysis []byte, theme dto.Theme) (*dto.AnnotateResult, error) {
	analysis := s.validator.Validate(rawAnalysis)
	plan := s.planner.Plan(analysis, theme)

	return &dto.AnnotateResult{
		Analysis: analysis,
		Plan:     plan,
	}, nil
}

func (s *annotateService) AnnotateSymbol(ctx context.Context, symbol, interval string, theme dto.Theme) (*dto.AnnotateResult, error) {
	image, err := s.repo.ChartImageRepo.GetChartImage(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}

	rawAnalysis, err := s.getRawAnalysis(ctx, symbol, interval, image)
	if err != nil {
		return nil, err
	}

	return s.AnnotateImage(ctx, rawAnalysis, image, theme)
}

// getRawAnalysis returns the cached raw analysis for the symbol and interval
// when one is fresh enough, otherwise asks the inference service. Only the raw
// payload is cached; plans and rendered images are cheap and deterministic to
// rebuild.
func (s *annotateService) getRawAnalysis(ctx context.Context, symbol, interval string, image []byte) ([]byte, error) {
	key := fmt.Sprintf(common.KEY_RAW_ANALYSIS, symbol, interval)
	if cached, ok := s.inmemoryCache.Get(key); ok {
		if raw, ok := cached.([]byte); ok {
			s.log.DebugContext(ctx, "Using cached raw analysis", logger.StringField("symbol", symbol))
			return raw, nil
		}
	}

	raw, err := s.repo.AIRepo.AnalyzeChart(ctx, symbol, interval, image)
	if err != nil {
		return nil, err
	}

	s.inmemoryCache.Set(key, raw, s.cfg.Cache.AnalysisExpDuration)
	return raw, nil
}

func (s *annotateService) AnnotateBatch(ctx context.Context, inputs []BatchInput) ([]*dto.AnnotateResult, error) {
	results := make([]*dto.AnnotateResult, len(inputs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if !utils.ShouldContinue(gCtx, s.log) {
				return gCtx.Err()
			}
			result, err := s.AnnotateImage(gCtx, input.RawAnalysis, input.Image, input.Theme)
			if err != nil {
				return fmt.Errorf("failed to annotate %q: %w", input.Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

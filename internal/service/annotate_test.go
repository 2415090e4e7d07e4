package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chart-annotator/config"
	"chart-annotator/internal/dto"
	"chart-annotator/internal/renderer"
	"chart-annotator/pkg/cache"
	"chart-annotator/pkg/logger"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnnotateService(t *testing.T) AnnotateService {
	t.Helper()
	cfg := &config.Config{
		Annotation: testAnnotationConfig(),
		Cache: config.Cache{
			DefaultExpiration:   time.Minute,
			CleanupInterval:     time.Minute,
			AnalysisExpDuration: time.Minute,
		},
	}
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	rend, err := renderer.New(cfg.Annotation, log)
	require.NoError(t, err)

	c := cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval)
	return NewAnnotateService(cfg, log, nil, c, rend)
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	dc := gg.NewContext(640, 360)
	dc.SetRGB(0.1, 0.1, 0.12)
	dc.Clear()
	var buf bytes.Buffer
	require.NoError(t, dc.EncodePNG(&buf))
	return buf.Bytes()
}

const sampleRawAnalysis = `{
	"current_price": 96200,
	"regime": {"trend": "uptrend", "strength": "strong", "description": "Higher lows pressing into resistance."},
	"levels": [
		{"price": 90000, "kind": "support", "strength": "strong", "recency": "recent"},
		{"price": 103000, "kind": "resistance", "strength": "moderate", "recency": "intermediate"}
	],
	"pivot": {"price": 95800, "label": "daily pivot"},
	"scenarios": {
		"bullish": {"target": 100500, "invalidation": 94000},
		"bearish": {"target": 91000, "invalidation": 99000}
	},
	"confidence": {"overall": "medium", "reasons": []}
}`

func TestAnnotateService_PlanOnly(t *testing.T) {
	svc := newTestAnnotateService(t)

	result, err := svc.PlanOnly(context.Background(), []byte(sampleRawAnalysis), dto.ThemeDark)

	require.NoError(t, err)
	require.NotNil(t, result.Analysis)
	require.NotNil(t, result.Plan)
	assert.True(t, result.Analysis.Success)
	assert.Nil(t, result.Image, "plan-only must not produce an image")
	assert.NotEmpty(t, result.Plan.Marks)
	assert.NotEmpty(t, result.Plan.Story)
	assert.LessOrEqual(t, len(result.Plan.Marks), 9)
}

func TestAnnotateService_PlanOnlyDeterministic(t *testing.T) {
	svc := newTestAnnotateService(t)
	ctx := context.Background()

	first, err := svc.PlanOnly(ctx, []byte(sampleRawAnalysis), dto.ThemeDark)
	require.NoError(t, err)
	second, err := svc.PlanOnly(ctx, []byte(sampleRawAnalysis), dto.ThemeDark)
	require.NoError(t, err)

	assert.Equal(t, first.Analysis, second.Analysis)
	assert.Equal(t, first.Plan, second.Plan)
}

func TestAnnotateService_AnnotateImage(t *testing.T) {
	svc := newTestAnnotateService(t)

	result, err := svc.AnnotateImage(context.Background(), []byte(sampleRawAnalysis), blankPNG(t), dto.ThemeDark)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Image)
	assert.NotEmpty(t, result.Plan.Marks)
}

func TestAnnotateService_AnnotateImageBadBase(t *testing.T) {
	svc := newTestAnnotateService(t)

	result, err := svc.AnnotateImage(context.Background(), []byte(sampleRawAnalysis), []byte("not an image"), dto.ThemeDark)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, renderer.ErrImageDecode)
}

func TestAnnotateService_AnnotateImageMalformedAnalysis(t *testing.T) {
	svc := newTestAnnotateService(t)

	// Malformed analysis degrades to a placeholder but the render still runs.
	result, err := svc.AnnotateImage(context.Background(), []byte("{{broken"), blankPNG(t), dto.ThemeDark)

	require.NoError(t, err)
	assert.False(t, result.Analysis.Success)
	assert.NotEmpty(t, result.Image)
	assert.NotEmpty(t, result.Plan.Story)
}

func TestAnnotateService_AnnotateBatch(t *testing.T) {
	svc := newTestAnnotateService(t)
	base := blankPNG(t)

	inputs := []BatchInput{
		{Name: "btc-1d", RawAnalysis: []byte(sampleRawAnalysis), Image: base, Theme: dto.ThemeDark},
		{Name: "btc-4h", RawAnalysis: []byte(sampleRawAnalysis), Image: base, Theme: dto.ThemeLight},
		{Name: "broken", RawAnalysis: []byte("{{"), Image: base, Theme: dto.ThemeDark},
	}

	results, err := svc.AnnotateBatch(context.Background(), inputs)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, dto.ThemeDark, results[0].Plan.Theme)
	assert.Equal(t, dto.ThemeLight, results[1].Plan.Theme)
	assert.False(t, results[2].Analysis.Success)
	for _, result := range results {
		assert.NotEmpty(t, result.Image)
	}
}

func TestAnnotateService_AnnotateBatchCancelledContext(t *testing.T) {
	svc := newTestAnnotateService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []BatchInput{
		{Name: "btc-1d", RawAnalysis: []byte(sampleRawAnalysis), Image: blankPNG(t), Theme: dto.ThemeDark},
	}

	results, err := svc.AnnotateBatch(ctx, inputs)

	assert.Nil(t, results)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnnotateService_AnnotateBatchFailFast(t *testing.T) {
	svc := newTestAnnotateService(t)

	inputs := []BatchInput{
		{Name: "good", RawAnalysis: []byte(sampleRawAnalysis), Image: blankPNG(t), Theme: dto.ThemeDark},
		{Name: "bad-image", RawAnalysis: []byte(sampleRawAnalysis), Image: []byte("junk"), Theme: dto.ThemeDark},
	}

	results, err := svc.AnnotateBatch(context.Background(), inputs)

	assert.Nil(t, results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-image")
}

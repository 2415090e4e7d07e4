package renderer

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"chart-annotator/internal/dto"
	"chart-annotator/pkg/logger"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	r, err := New(testAnnotationConfig(), log)
	require.NoError(t, err)
	return r
}

func testChartPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	dc := gg.NewContext(width, height)
	dc.SetRGB(0.08, 0.09, 0.11)
	dc.Clear()

	var buf bytes.Buffer
	require.NoError(t, dc.EncodePNG(&buf))
	return buf.Bytes()
}

func testPlan() *dto.AnnotationPlan {
	return &dto.AnnotationPlan{
		Theme: dto.ThemeDark,
		Story: "Price is trending higher; buyers remain in control.",
		Marks: []dto.AnnotationMark{
			{Type: dto.MarkZone, Role: dto.RoleSupport, Price: 94200, PriceHigh: 94671, PriceLow: 93729, Opacity: 0.25},
			{Type: dto.MarkLabel, Role: dto.RoleSupport, Price: 94200, Text: "Support"},
			{Type: dto.MarkLine, Role: dto.RolePivot, Price: 95800, Style: dto.StyleDashed},
			{Type: dto.MarkCircle, Role: dto.RoleCurrentPrice, Price: 96200},
			{Type: dto.MarkArrow, Role: dto.RoleBullPath, Price: 101950, PriceHigh: 101950, PriceLow: 96200, Style: dto.StyleSolid, Text: "TP 101950"},
			{Type: dto.MarkRangeBox, Role: dto.RoleResistance, Price: 98000, PriceHigh: 98500, PriceLow: 97500, Opacity: 0.15},
		},
	}
}

func testRenderAnalysis() *dto.Analysis {
	return &dto.Analysis{
		Success:      true,
		CurrentPrice: 96200,
		Levels: []dto.Level{
			{Price: 94200, Kind: dto.LevelKindSupport, Strength: dto.StrengthStrong},
			{Price: 98500, Kind: dto.LevelKindResistance, Strength: dto.StrengthModerate},
		},
		Pivot:   dto.Pivot{Price: 95800},
		Bullish: dto.Scenario{Direction: dto.DirectionBullish, Target: 101950, Invalidation: 94000},
	}
}

func TestRenderer_Render(t *testing.T) {
	r := newTestRenderer(t)
	base := testChartPNG(t, 800, 450)

	out, err := r.Render(base, testPlan(), testRenderAnalysis())

	require.NoError(t, err)
	require.NotEmpty(t, out)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 800, decoded.Bounds().Dx())
	assert.Equal(t, 450, decoded.Bounds().Dy())
}

func TestRenderer_RenderModifiesImage(t *testing.T) {
	r := newTestRenderer(t)
	base := testChartPNG(t, 400, 300)

	out, err := r.Render(base, testPlan(), testRenderAnalysis())
	require.NoError(t, err)

	baseImg, err := png.Decode(bytes.NewReader(base))
	require.NoError(t, err)
	outImg, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	diff := false
	for y := 0; y < 300 && !diff; y++ {
		for x := 0; x < 400; x++ {
			if baseImg.At(x, y) != outImg.At(x, y) {
				diff = true
				break
			}
		}
	}
	assert.True(t, diff, "annotated image should differ from the base image")
}

func TestRenderer_RenderDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	base := testChartPNG(t, 640, 360)
	plan := testPlan()
	analysis := testRenderAnalysis()

	first, err := r.Render(base, plan, analysis)
	require.NoError(t, err)
	second, err := r.Render(base, plan, analysis)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderer_RenderBadImage(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "garbage bytes", data: []byte("definitely not a png")},
		{name: "empty input", data: nil},
		{name: "truncated png header", data: []byte{0x89, 0x50, 0x4E, 0x47}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.data, testPlan(), testRenderAnalysis())
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrImageDecode)
		})
	}
}

func TestRenderer_DegenerateMarksSkipped(t *testing.T) {
	r := newTestRenderer(t)
	base := testChartPNG(t, 400, 300)

	// Price far outside the visible range maps way off the canvas; the mark is
	// skipped and the render still succeeds.
	plan := &dto.AnnotationPlan{
		Theme: dto.ThemeDark,
		Marks: []dto.AnnotationMark{
			{Type: dto.MarkLine, Role: dto.RolePivot, Price: 5_000_000},
			{Type: dto.MarkCircle, Role: dto.RoleCurrentPrice, Price: 96200},
		},
	}

	out, err := r.Render(base, plan, testRenderAnalysis())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderer_UnknownMarkTypeIgnored(t *testing.T) {
	r := newTestRenderer(t)
	base := testChartPNG(t, 400, 300)

	plan := &dto.AnnotationPlan{
		Theme: dto.ThemeDark,
		Marks: []dto.AnnotationMark{
			{Type: dto.MarkType("hologram"), Role: dto.RoleSupport, Price: 94200},
		},
	}

	out, err := r.Render(base, plan, testRenderAnalysis())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderer_JPEGInputAccepted(t *testing.T) {
	r := newTestRenderer(t)

	dc := gg.NewContext(320, 240)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, dc.Image(), nil))

	out, err := r.Render(buf.Bytes(), testPlan(), testRenderAnalysis())
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format, "output is always PNG regardless of input format")
}

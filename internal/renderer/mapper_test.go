package renderer

import (
	"testing"

	"chart-annotator/config"
	"chart-annotator/internal/dto"

	"github.com/stretchr/testify/assert"
)

func testAnnotationConfig() config.AnnotationConfig {
	return config.AnnotationConfig{
		LevelFilterThreshold: 0.05,
		TargetCapMultiplier:  2.5,
		ZoneBandWidth:        0.005,
		MaxMarks:             9,
		RangePadding:         0.15,
		PlotLeft:             0.08,
		PlotRight:            0.92,
		PlotTop:              0.05,
		PlotBottom:           0.88,
		StoryMaxChars:        80,
	}
}

func TestCoordinateMapper_PriceRange(t *testing.T) {
	tests := []struct {
		name     string
		analysis *dto.Analysis
		want     PriceRange
	}{
		{
			name:     "no prices falls back to the safe default",
			analysis: &dto.Analysis{},
			want:     PriceRange{Min: 0, Max: 100},
		},
		{
			name: "single price yields a zero-width span",
			analysis: &dto.Analysis{
				CurrentPrice: 50000,
			},
			want: PriceRange{Min: 50000, Max: 50000},
		},
		{
			name: "span padded on both ends",
			analysis: &dto.Analysis{
				CurrentPrice: 96200,
				Levels: []dto.Level{
					{Price: 94000, Kind: dto.LevelKindSupport},
					{Price: 98000, Kind: dto.LevelKindResistance},
				},
			},
			// span 4000, pad 600
			want: PriceRange{Min: 93400, Max: 98600},
		},
		{
			name: "zero prices are ignored",
			analysis: &dto.Analysis{
				CurrentPrice: 100,
				Bullish:      dto.Scenario{Target: 0, Invalidation: 0},
				Bearish:      dto.Scenario{Target: 0, Invalidation: 0},
			},
			want: PriceRange{Min: 100, Max: 100},
		},
		{
			name: "scenario prices widen the span",
			analysis: &dto.Analysis{
				CurrentPrice: 96200,
				Bullish:      dto.Scenario{Target: 102000, Invalidation: 94000},
				Bearish:      dto.Scenario{Target: 90000, Invalidation: 99000},
			},
			// span 12000, pad 1800
			want: PriceRange{Min: 88200, Max: 103800},
		},
	}

	m := NewCoordinateMapper(testAnnotationConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.PriceRange(tt.analysis)
			assert.InDelta(t, tt.want.Min, got.Min, 1e-9)
			assert.InDelta(t, tt.want.Max, got.Max, 1e-9)
		})
	}
}

func TestCoordinateMapper_ChartArea(t *testing.T) {
	m := NewCoordinateMapper(testAnnotationConfig())

	area := m.ChartArea(1000, 500)

	assert.InDelta(t, 80, area.Left, 1e-9)
	assert.InDelta(t, 920, area.Right, 1e-9)
	assert.InDelta(t, 25, area.Top, 1e-9)
	assert.InDelta(t, 440, area.Bottom, 1e-9)
	assert.InDelta(t, 840, area.Width(), 1e-9)
}

func TestCoordinateMapper_ToY(t *testing.T) {
	m := NewCoordinateMapper(testAnnotationConfig())
	area := ChartArea{Left: 0, Right: 100, Top: 100, Bottom: 500}
	pr := PriceRange{Min: 90000, Max: 100000}

	t.Run("min price maps to the bottom edge", func(t *testing.T) {
		assert.InDelta(t, 500, m.ToY(90000, area, pr), 1e-9)
	})

	t.Run("max price maps to the top edge", func(t *testing.T) {
		assert.InDelta(t, 100, m.ToY(100000, area, pr), 1e-9)
	})

	t.Run("higher price means smaller y", func(t *testing.T) {
		low := m.ToY(92000, area, pr)
		high := m.ToY(98000, area, pr)
		assert.Less(t, high, low)
	})

	t.Run("midpoint maps to the vertical center", func(t *testing.T) {
		assert.InDelta(t, 300, m.ToY(95000, area, pr), 1e-9)
	})

	t.Run("degenerate range centers the price", func(t *testing.T) {
		flat := PriceRange{Min: 95000, Max: 95000}
		assert.InDelta(t, 300, m.ToY(95000, area, flat), 1e-9)
	})
}

package renderer

import (
	"chart-annotator/config"
	"chart-annotator/internal/dto"
)

// PriceRange is the visible price span of a single render call.
type PriceRange struct {
	Min float64
	Max float64
}

// ChartArea is the usable plotting sub-rectangle of the chart image, in
// pixels. The margins are a heuristic for where axis labels and headers sit on
// screenshot-style charts, not a measured layout, which is why they come from
// configuration.
type ChartArea struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

func (a ChartArea) Width() float64 {
	return a.Right - a.Left
}

// CoordinateMapper derives per-render geometry from the analysis price set and
// the base image dimensions. It holds no state between calls.
type CoordinateMapper struct {
	cfg config.AnnotationConfig
}

func NewCoordinateMapper(cfg config.AnnotationConfig) *CoordinateMapper {
	return &CoordinateMapper{cfg: cfg}
}

// PriceRange collects every non-zero price the analysis references and pads
// the span on both ends. An analysis with no prices at all maps to [0, 100], a
// deliberately wrong but division-safe default.
func (m *CoordinateMapper) PriceRange(analysis *dto.Analysis) PriceRange {
	prices := make([]float64, 0, 10)
	appendNonZero := func(p float64) {
		if p > 0 {
			prices = append(prices, p)
		}
	}

	appendNonZero(analysis.CurrentPrice)
	for _, level := range analysis.Levels {
		appendNonZero(level.Price)
	}
	appendNonZero(analysis.Pivot.Price)
	appendNonZero(analysis.Bullish.Target)
	appendNonZero(analysis.Bullish.Invalidation)
	appendNonZero(analysis.Bearish.Target)
	appendNonZero(analysis.Bearish.Invalidation)

	if len(prices) == 0 {
		return PriceRange{Min: 0, Max: 100}
	}

	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	pad := (max - min) * m.cfg.RangePadding
	return PriceRange{Min: min - pad, Max: max + pad}
}

// ChartArea computes the plotting rectangle from the image pixel dimensions
// using the configured fractional margins.
func (m *CoordinateMapper) ChartArea(width, height int) ChartArea {
	w, h := float64(width), float64(height)
	return ChartArea{
		Left:   w * m.cfg.PlotLeft,
		Right:  w * m.cfg.PlotRight,
		Top:    h * m.cfg.PlotTop,
		Bottom: h * m.cfg.PlotBottom,
	}
}

// ToY maps a price onto the vertical pixel axis. Pixel Y grows downward while
// price grows upward, so the mapping is inverted.
func (m *CoordinateMapper) ToY(price float64, area ChartArea, pr PriceRange) float64 {
	min, max := pr.Min, pr.Max
	if max == min {
		min, max = price-1, price+1
	}
	return area.Bottom - ((price-min)/(max-min))*(area.Bottom-area.Top)
}

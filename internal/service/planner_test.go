package service

import (
	"testing"

	"chart-annotator/internal/dto"
	"chart-annotator/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(t *testing.T) *AnnotationPlanner {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return NewAnnotationPlanner(testAnnotationConfig(), log)
}

func fullAnalysis() *dto.Analysis {
	return &dto.Analysis{
		Success:      true,
		CurrentPrice: 96200,
		Regime: dto.Regime{
			Trend:       dto.TrendUptrend,
			Description: "Strong uptrend with higher lows into resistance.",
		},
		Levels: []dto.Level{
			{Price: 98500, Kind: dto.LevelKindResistance, Strength: dto.StrengthStrong},
			{Price: 94200, Kind: dto.LevelKindSupport, Strength: dto.StrengthStrong},
			{Price: 91000, Kind: dto.LevelKindSupport, Strength: dto.StrengthWeak},
		},
		Pivot:   dto.Pivot{Price: 95800, Label: "daily pivot"},
		Bullish: dto.Scenario{Direction: dto.DirectionBullish, Target: 101950, Invalidation: 94000},
		Bearish: dto.Scenario{Direction: dto.DirectionBearish, Target: 90000, Invalidation: 99000},
	}
}

func TestAnnotationPlanner_MarkBudget(t *testing.T) {
	p := newTestPlanner(t)

	plan := p.Plan(fullAnalysis(), dto.ThemeDark)

	assert.LessOrEqual(t, len(plan.Marks), 9)
}

func TestAnnotationPlanner_ZoneGeometry(t *testing.T) {
	p := newTestPlanner(t)
	analysis := &dto.Analysis{
		Success:      true,
		CurrentPrice: 96200,
		Levels: []dto.Level{
			{Price: 94200, Kind: dto.LevelKindSupport, Strength: dto.StrengthStrong},
		},
	}

	plan := p.Plan(analysis, dto.ThemeDark)

	require.NotEmpty(t, plan.Marks)
	zone := plan.Marks[0]
	assert.Equal(t, dto.MarkZone, zone.Type)
	assert.Equal(t, dto.RoleSupport, zone.Role)
	assert.InDelta(t, 94671, zone.PriceHigh, 1e-9)
	assert.InDelta(t, 93729, zone.PriceLow, 1e-9)
	assert.InDelta(t, 0.25, zone.Opacity, 1e-9)
}

func TestAnnotationPlanner_StrengthOpacity(t *testing.T) {
	tests := []struct {
		strength dto.LevelStrength
		want     float64
	}{
		{dto.StrengthStrong, 0.25},
		{dto.StrengthModerate, 0.18},
		{dto.StrengthWeak, 0.12},
	}

	for _, tt := range tests {
		t.Run(string(tt.strength), func(t *testing.T) {
			p := newTestPlanner(t)
			analysis := &dto.Analysis{
				Success:      true,
				CurrentPrice: 96200,
				Levels: []dto.Level{
					{Price: 90000, Kind: dto.LevelKindSupport, Strength: tt.strength},
				},
			}

			plan := p.Plan(analysis, dto.ThemeDark)

			require.NotEmpty(t, plan.Marks)
			assert.InDelta(t, tt.want, plan.Marks[0].Opacity, 1e-9)
		})
	}
}

func TestAnnotationPlanner_MarkOrder(t *testing.T) {
	p := newTestPlanner(t)

	plan := p.Plan(fullAnalysis(), dto.ThemeDark)

	types := make([]dto.MarkType, 0, len(plan.Marks))
	for _, m := range plan.Marks {
		types = append(types, m.Type)
	}

	// Three level zone+label pairs, then pivot line+label, then the budget
	// cuts in: only the current-price circle fits.
	want := []dto.MarkType{
		dto.MarkZone, dto.MarkLabel,
		dto.MarkZone, dto.MarkLabel,
		dto.MarkZone, dto.MarkLabel,
		dto.MarkLine, dto.MarkLabel,
		dto.MarkCircle,
	}
	assert.Equal(t, want, types)
}

func TestAnnotationPlanner_ScenarioArrows(t *testing.T) {
	p := newTestPlanner(t)
	analysis := &dto.Analysis{
		Success:      true,
		CurrentPrice: 96200,
		Levels: []dto.Level{
			{Price: 98500, Kind: dto.LevelKindResistance, Strength: dto.StrengthModerate},
		},
		Bullish: dto.Scenario{Direction: dto.DirectionBullish, Target: 101950, Invalidation: 94000},
		Bearish: dto.Scenario{Direction: dto.DirectionBearish, Target: 90000, Invalidation: 99000},
	}

	plan := p.Plan(analysis, dto.ThemeDark)

	var bull, bear *dto.AnnotationMark
	for i := range plan.Marks {
		switch plan.Marks[i].Role {
		case dto.RoleBullPath:
			bull = &plan.Marks[i]
		case dto.RoleBearPath:
			bear = &plan.Marks[i]
		}
	}

	require.NotNil(t, bull, "bullish arrow expected")
	assert.Equal(t, dto.MarkArrow, bull.Type)
	assert.Equal(t, dto.StyleSolid, bull.Style)
	assert.InDelta(t, 101950, bull.PriceHigh, 1e-9)
	assert.InDelta(t, 96200, bull.PriceLow, 1e-9)

	require.NotNil(t, bear, "bearish arrow expected")
	assert.Equal(t, dto.StyleDashed, bear.Style)
	assert.InDelta(t, 90000, bear.PriceLow, 1e-9)
}

func TestAnnotationPlanner_ArrowDirectionGuards(t *testing.T) {
	p := newTestPlanner(t)
	// Both targets on the wrong side of the current price: no arrows.
	analysis := &dto.Analysis{
		Success:      true,
		CurrentPrice: 96200,
		Bullish:      dto.Scenario{Direction: dto.DirectionBullish, Target: 95000, Invalidation: 94000},
		Bearish:      dto.Scenario{Direction: dto.DirectionBearish, Target: 97000, Invalidation: 99000},
	}

	plan := p.Plan(analysis, dto.ThemeDark)

	for _, m := range plan.Marks {
		assert.NotEqual(t, dto.MarkArrow, m.Type)
	}
}

func TestAnnotationPlanner_EmptyAnalysis(t *testing.T) {
	p := newTestPlanner(t)
	analysis := &dto.Analysis{Success: true}

	plan := p.Plan(analysis, dto.ThemeDark)

	assert.Empty(t, plan.Marks, "no prices means nothing to draw")
	assert.NotEmpty(t, plan.Story, "story must always be synthesized")
}

func TestAnnotationPlanner_Story(t *testing.T) {
	tests := []struct {
		name     string
		regime   dto.Regime
		want     string
		verbatim bool
	}{
		{
			name:     "verbatim description used when present",
			regime:   dto.Regime{Trend: dto.TrendRange, Description: "Coiling under the weekly open."},
			want:     "Coiling under the weekly open.",
			verbatim: true,
		},
		{
			name:   "generic description replaced",
			regime: dto.Regime{Trend: dto.TrendDowntrend, Description: "N/A"},
			want:   "Price is trending lower; sellers remain in control.",
		},
		{
			name:   "unknown trend still yields a story",
			regime: dto.Regime{Trend: "sideways-ish"},
			want:   "Market structure is mixed; waiting for a decisive move.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlanner(t)
			plan := p.Plan(&dto.Analysis{Success: true, Regime: tt.regime}, dto.ThemeDark)
			assert.Equal(t, tt.want, plan.Story)
		})
	}
}

func TestAnnotationPlanner_Determinism(t *testing.T) {
	p := newTestPlanner(t)
	analysis := fullAnalysis()

	first := p.Plan(analysis, dto.ThemeLight)
	second := p.Plan(analysis, dto.ThemeLight)

	assert.Equal(t, first, second)
}

func TestAnnotationPlanner_ThemeNormalized(t *testing.T) {
	p := newTestPlanner(t)

	assert.Equal(t, dto.ThemeLight, p.Plan(&dto.Analysis{}, dto.ThemeLight).Theme)
	assert.Equal(t, dto.ThemeDark, p.Plan(&dto.Analysis{}, dto.ThemeDark).Theme)
	assert.Equal(t, dto.ThemeDark, p.Plan(&dto.Analysis{}, dto.Theme("neon")).Theme)
}

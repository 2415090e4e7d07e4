package service

import (
	"fmt"
	"strconv"
	"strings"

	"chart-annotator/config"
	"chart-annotator/internal/dto"
	"chart-annotator/pkg/logger"
)

// AnnotationPlanner converts a validated analysis into an ordered, bounded
// list of drawable marks. Emit order is draw order: the renderer walks the
// list front to back, so later marks layer on top of earlier ones.
type AnnotationPlanner struct {
	cfg config.AnnotationConfig
	log *logger.Logger
}

func NewAnnotationPlanner(cfg config.AnnotationConfig, log *logger.Logger) *AnnotationPlanner {
	return &AnnotationPlanner{cfg: cfg, log: log}
}

// Plan builds the annotation plan for one analysis. The returned plan is a
// fresh value every call; planning the same analysis twice yields equal plans.
func (p *AnnotationPlanner) Plan(analysis *dto.Analysis, theme dto.Theme) *dto.AnnotationPlan {
	plan := &dto.AnnotationPlan{
		Theme: normalizeTheme(theme),
		Marks: make([]dto.AnnotationMark, 0, p.cfg.MaxMarks),
	}

	// 1. Level zones and labels.
	for _, level := range analysis.Levels {
		band := level.Price * p.cfg.ZoneBandWidth
		role := dto.RoleSupport
		text := dto.LabelSupport
		if level.Kind == dto.LevelKindResistance {
			role = dto.RoleResistance
			text = dto.LabelResistance
		}
		p.add(plan, dto.AnnotationMark{
			Type:      dto.MarkZone,
			Role:      role,
			Price:     level.Price,
			PriceHigh: level.Price + band,
			PriceLow:  level.Price - band,
			Opacity:   strengthOpacity(level.Strength),
		})
		p.add(plan, dto.AnnotationMark{
			Type:  dto.MarkLabel,
			Role:  role,
			Price: level.Price,
			Text:  text,
		})
	}

	// 2. Pivot line and label.
	if analysis.Pivot.Price > 0 {
		p.add(plan, dto.AnnotationMark{
			Type:  dto.MarkLine,
			Role:  dto.RolePivot,
			Price: analysis.Pivot.Price,
			Style: dto.StyleDashed,
		})
		p.add(plan, dto.AnnotationMark{
			Type:  dto.MarkLabel,
			Role:  dto.RolePivot,
			Price: analysis.Pivot.Price,
			Text:  dto.LabelPivot,
		})
	}

	// 3. Current price marker.
	if analysis.CurrentPrice > 0 {
		p.add(plan, dto.AnnotationMark{
			Type:  dto.MarkCircle,
			Role:  dto.RoleCurrentPrice,
			Price: analysis.CurrentPrice,
		})
	}

	// 4. Bullish path, only when the (already capped) target is above price.
	if analysis.Bullish.Target > 0 && analysis.Bullish.Target > analysis.CurrentPrice {
		p.add(plan, dto.AnnotationMark{
			Type:      dto.MarkArrow,
			Role:      dto.RoleBullPath,
			Price:     analysis.Bullish.Target,
			PriceHigh: analysis.Bullish.Target,
			PriceLow:  analysis.CurrentPrice,
			Style:     dto.StyleSolid,
			Text:      "TP " + formatPrice(analysis.Bullish.Target),
		})
	}

	// 5. Bearish path, only when the target is below price.
	if analysis.Bearish.Target > 0 && analysis.Bearish.Target < analysis.CurrentPrice {
		p.add(plan, dto.AnnotationMark{
			Type:      dto.MarkArrow,
			Role:      dto.RoleBearPath,
			Price:     analysis.Bearish.Target,
			PriceHigh: analysis.CurrentPrice,
			PriceLow:  analysis.Bearish.Target,
			Style:     dto.StyleDashed,
			Text:      "TP " + formatPrice(analysis.Bearish.Target),
		})
	}

	// 6. Narrative. Always non-empty so the plan can stand alone as a summary.
	plan.Story = p.story(analysis)

	return plan
}

// add appends a mark unless the budget is exhausted. The budget holds
// structurally for typical analyses; pathological inputs lose their lowest
// priority marks, which are the ones emitted last.
func (p *AnnotationPlanner) add(plan *dto.AnnotationPlan, mark dto.AnnotationMark) {
	if len(plan.Marks) >= p.cfg.MaxMarks {
		p.log.Debug("Mark budget exhausted, dropping mark",
			logger.StringField("type", string(mark.Type)),
			logger.StringField("role", string(mark.Role)),
		)
		return
	}
	plan.Marks = append(plan.Marks, mark)
}

// story prefers the regime's own one-line description; when that is missing or
// generic it synthesizes a sentence from the trend so the narrative is never
// empty.
func (p *AnnotationPlanner) story(analysis *dto.Analysis) string {
	desc := strings.TrimSpace(analysis.Regime.Description)
	if desc != "" && !isGenericDescription(desc) {
		return desc
	}

	switch analysis.Regime.Trend {
	case dto.TrendUptrend:
		return "Price is trending higher; buyers remain in control."
	case dto.TrendDowntrend:
		return "Price is trending lower; sellers remain in control."
	case dto.TrendRange:
		return "Price is consolidating between well-defined boundaries."
	case dto.TrendBreakout:
		return "Price is breaking out above its recent range."
	case dto.TrendBreakdown:
		return "Price is breaking down below its recent range."
	default:
		return "Market structure is mixed; waiting for a decisive move."
	}
}

func isGenericDescription(desc string) bool {
	switch strings.ToLower(desc) {
	case "n/a", "na", "none", "unknown", "no description", "-":
		return true
	}
	return false
}

func strengthOpacity(strength dto.LevelStrength) float64 {
	switch strength {
	case dto.StrengthStrong:
		return 0.25
	case dto.StrengthModerate:
		return 0.18
	default:
		return 0.12
	}
}

func normalizeTheme(theme dto.Theme) dto.Theme {
	if theme == dto.ThemeLight {
		return dto.ThemeLight
	}
	return dto.ThemeDark
}

func formatPrice(price float64) string {
	if price >= 1000 {
		return fmt.Sprintf("%.0f", price)
	}
	return strconv.FormatFloat(price, 'f', -1, 64)
}

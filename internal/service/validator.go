package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"chart-annotator/config"
	"chart-annotator/internal/dto"
	"chart-annotator/pkg/logger"
)

// AnalysisValidator sanitizes raw inference output before anything downstream
// sees it. It never returns an error: malformed input degrades into an explicit
// placeholder Analysis, and numeric sanity issues are fixed in place.
type AnalysisValidator struct {
	cfg config.AnnotationConfig
	log *logger.Logger
}

func NewAnalysisValidator(cfg config.AnnotationConfig, log *logger.Logger) *AnalysisValidator {
	return &AnalysisValidator{cfg: cfg, log: log}
}

// Validate parses the raw JSON and sanitizes it. A parse failure is the only
// case that yields Success=false; everything numeric is repaired, not rejected.
func (v *AnalysisValidator) Validate(raw []byte) *dto.Analysis {
	var parsed dto.RawAnalysis
	if err := json.Unmarshal(raw, &parsed); err != nil {
		v.log.Warn("Failed to parse raw analysis", logger.ErrorField(err))
		return &dto.Analysis{
			Success: false,
			Error:   fmt.Sprintf("analysis response is not valid JSON: %v", err),
			Levels:  []dto.Level{},
			Bullish: dto.Scenario{Direction: dto.DirectionBullish},
			Bearish: dto.Scenario{Direction: dto.DirectionBearish},
			Confidence: dto.Confidence{
				Overall: dto.ConfidenceLow,
				Reasons: []string{"analysis could not be parsed"},
			},
		}
	}
	return v.ValidateRaw(&parsed)
}

// ValidateRaw sanitizes an already-parsed analysis.
func (v *AnalysisValidator) ValidateRaw(raw *dto.RawAnalysis) *dto.Analysis {
	current := raw.CurrentPrice

	analysis := &dto.Analysis{
		Success: true,
		Regime: dto.Regime{
			Trend:       dto.Trend(strings.ToLower(strings.TrimSpace(raw.Regime.Trend))),
			Strength:    raw.Regime.Strength,
			Description: strings.TrimSpace(raw.Regime.Description),
		},
		Pivot: dto.Pivot{
			Price:        raw.Pivot.Price,
			Label:        raw.Pivot.Label,
			Significance: raw.Pivot.Significance,
		},
		Summary:      raw.Summary,
		CurrentPrice: current,
		Levels:       v.sanitizeLevels(raw.Levels, current),
	}

	// Capping anchors on every sane level, not the drawable set: a level
	// inside the proximity filter is still market structure even though it is
	// not worth drawing.
	structural := structuralLevels(raw.Levels, current)
	analysis.Bullish = v.sanitizeScenario(raw.Scenarios.Bullish, dto.DirectionBullish, current, structural)
	analysis.Bearish = v.sanitizeScenario(raw.Scenarios.Bearish, dto.DirectionBearish, current, structural)
	analysis.Confidence = v.sanitizeConfidence(raw.Confidence, analysis.Bullish, analysis.Bearish)

	return analysis
}

// sanitizeLevels drops levels without a real price, drops levels within the
// filter threshold of the current price (a model reporting the current price
// as support or resistance carries no information), and keeps at most three.
func (v *AnalysisValidator) sanitizeLevels(rawLevels []dto.RawLevel, current float64) []dto.Level {
	levels := make([]dto.Level, 0, 3)
	for _, rl := range rawLevels {
		if len(levels) == 3 {
			break
		}
		if rl.Price <= 0 {
			continue
		}
		if current > 0 {
			relDist := math.Abs(rl.Price-current) / current
			if relDist <= v.cfg.LevelFilterThreshold {
				v.log.Debug("Dropping level too close to current price",
					logger.Float64Field("level_price", rl.Price),
					logger.Float64Field("current_price", current),
					logger.Float64Field("relative_distance", relDist),
				)
				continue
			}
		}
		levels = append(levels, dto.Level{
			Price:      rl.Price,
			Kind:       normalizeLevelKind(rl.Kind, rl.Price, current),
			Label:      rl.Label,
			TouchCount: rl.TouchCount,
			Recency:    normalizeRecency(rl.Recency),
			Strength:   normalizeStrength(rl.Strength),
		})
	}
	return levels
}

// structuralLevels keeps every level with a real price, regardless of how
// close it sits to the current price.
func structuralLevels(rawLevels []dto.RawLevel, current float64) []dto.Level {
	levels := make([]dto.Level, 0, len(rawLevels))
	for _, rl := range rawLevels {
		if rl.Price <= 0 {
			continue
		}
		levels = append(levels, dto.Level{
			Price: rl.Price,
			Kind:  normalizeLevelKind(rl.Kind, rl.Price, current),
		})
	}
	return levels
}

// sanitizeScenario caps an out-of-range target against the nearest structural
// level on the scenario's side. Without a directional level the target passes
// through unmodified; inventing a cap would be worse than the raw value.
func (v *AnalysisValidator) sanitizeScenario(raw dto.RawScenario, direction dto.Direction, current float64, levels []dto.Level) dto.Scenario {
	scenario := dto.Scenario{
		Direction:          direction,
		Trigger:            raw.Trigger,
		Target:             raw.Target,
		TargetReason:       raw.TargetReason,
		Invalidation:       raw.Invalidation,
		InvalidationReason: raw.InvalidationReason,
	}

	if current <= 0 || scenario.Target <= 0 {
		return scenario
	}

	nearest, ok := nearestDirectionalLevel(levels, current, direction)
	if !ok {
		return scenario
	}

	d := math.Abs(nearest.Price - current)
	maxDistance := v.cfg.TargetCapMultiplier * d

	var capped float64
	switch direction {
	case dto.DirectionBullish:
		if scenario.Target-current <= maxDistance {
			return scenario
		}
		capped = current + maxDistance
	case dto.DirectionBearish:
		if current-scenario.Target <= maxDistance {
			return scenario
		}
		capped = current - maxDistance
	default:
		return scenario
	}

	v.log.Debug("Capping scenario target",
		logger.StringField("direction", string(direction)),
		logger.Float64Field("raw_target", scenario.Target),
		logger.Float64Field("capped_target", capped),
		logger.Float64Field("anchor_level", nearest.Price),
	)
	scenario.Target = capped
	return scenario
}

// sanitizeConfidence forces overall confidence to low when either scenario is
// missing its invalidation price.
func (v *AnalysisValidator) sanitizeConfidence(raw dto.RawConfidence, bullish, bearish dto.Scenario) dto.Confidence {
	confidence := dto.Confidence{
		Overall: normalizeConfidence(raw.Overall),
		Reasons: append([]string{}, raw.Reasons...),
	}

	if bullish.Invalidation <= 0 {
		confidence.Overall = dto.ConfidenceLow
		confidence.Reasons = append(confidence.Reasons, "bullish scenario has no invalidation price")
	}
	if bearish.Invalidation <= 0 {
		confidence.Overall = dto.ConfidenceLow
		confidence.Reasons = append(confidence.Reasons, "bearish scenario has no invalidation price")
	}
	return confidence
}

// nearestDirectionalLevel finds the closest level strictly above the current
// price for bullish scenarios, or strictly below for bearish.
func nearestDirectionalLevel(levels []dto.Level, current float64, direction dto.Direction) (dto.Level, bool) {
	var nearest dto.Level
	found := false
	for _, level := range levels {
		onSide := false
		switch direction {
		case dto.DirectionBullish:
			onSide = level.Price > current
		case dto.DirectionBearish:
			onSide = level.Price < current
		}
		if !onSide {
			continue
		}
		if !found || math.Abs(level.Price-current) < math.Abs(nearest.Price-current) {
			nearest = level
			found = true
		}
	}
	return nearest, found
}

func normalizeLevelKind(kind string, price, current float64) dto.LevelKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "support":
		return dto.LevelKindSupport
	case "resistance":
		return dto.LevelKindResistance
	}
	// Infer from position when the model omitted the kind.
	if current > 0 && price < current {
		return dto.LevelKindSupport
	}
	return dto.LevelKindResistance
}

func normalizeStrength(strength string) dto.LevelStrength {
	switch strings.ToLower(strings.TrimSpace(strength)) {
	case "weak":
		return dto.StrengthWeak
	case "strong":
		return dto.StrengthStrong
	default:
		return dto.StrengthModerate
	}
}

func normalizeRecency(recency string) dto.LevelRecency {
	switch strings.ToLower(strings.TrimSpace(recency)) {
	case "recent":
		return dto.RecencyRecent
	case "old":
		return dto.RecencyOld
	default:
		return dto.RecencyIntermediate
	}
}

func normalizeConfidence(overall string) dto.ConfidenceLevel {
	switch strings.ToLower(strings.TrimSpace(overall)) {
	case "high":
		return dto.ConfidenceHigh
	case "low":
		return dto.ConfidenceLow
	default:
		return dto.ConfidenceMedium
	}
}

package dto

type LevelKind string

const (
	LevelKindSupport    LevelKind = "support"
	LevelKindResistance LevelKind = "resistance"
)

type LevelStrength string

const (
	StrengthWeak     LevelStrength = "weak"
	StrengthModerate LevelStrength = "moderate"
	StrengthStrong   LevelStrength = "strong"
)

type LevelRecency string

const (
	RecencyRecent       LevelRecency = "recent"
	RecencyIntermediate LevelRecency = "intermediate"
	RecencyOld          LevelRecency = "old"
)

type Trend string

const (
	TrendUptrend   Trend = "uptrend"
	TrendDowntrend Trend = "downtrend"
	TrendRange     Trend = "range"
	TrendBreakout  Trend = "breakout"
	TrendBreakdown Trend = "breakdown"
)

type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

const (
	LabelSupport    = "Support"
	LabelResistance = "Resistance"
	LabelPivot      = "Pivot"
)

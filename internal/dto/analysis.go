package dto

// RawAnalysis mirrors the JSON shape the inference call returns. The format is
// trusted but the content is not: prices may coincide with the market price,
// targets may be wildly out of range, and whole sections may be missing.
// Everything here goes through the validator before anything downstream sees it.
type RawAnalysis struct {
	Regime       RawRegime     `json:"regime"`
	Levels       []RawLevel    `json:"levels"`
	Pivot        RawPivot      `json:"pivot"`
	Scenarios    RawScenarios  `json:"scenarios"`
	Confidence   RawConfidence `json:"confidence"`
	Summary      string        `json:"summary"`
	CurrentPrice float64       `json:"current_price"`
}

type RawRegime struct {
	Trend       string `json:"trend"`
	Strength    string `json:"strength"`
	Description string `json:"description"`
}

type RawLevel struct {
	Price      float64 `json:"price"`
	Kind       string  `json:"kind"`
	Label      string  `json:"label"`
	TouchCount int     `json:"touch_count"`
	Recency    string  `json:"recency"`
	Strength   string  `json:"strength"`
}

type RawPivot struct {
	Price        float64 `json:"price"`
	Label        string  `json:"label"`
	Significance string  `json:"significance"`
}

type RawScenarios struct {
	Bullish RawScenario `json:"bullish"`
	Bearish RawScenario `json:"bearish"`
}

type RawScenario struct {
	Trigger            string  `json:"trigger"`
	Target             float64 `json:"target"`
	TargetReason       string  `json:"target_reason"`
	Invalidation       float64 `json:"invalidation"`
	InvalidationReason string  `json:"invalidation_reason"`
}

type RawConfidence struct {
	Overall string   `json:"overall"`
	Reasons []string `json:"reasons"`
}

// Analysis is the sanitized form of a RawAnalysis. All fields are present
// (zero-value placeholders instead of nil), level prices keep a minimum
// distance from the current price, and scenario targets are capped against
// their nearest structural level.
type Analysis struct {
	Success      bool       `json:"success"`
	Error        string     `json:"error,omitempty"`
	Regime       Regime     `json:"regime"`
	Levels       []Level    `json:"levels"`
	Pivot        Pivot      `json:"pivot"`
	Bullish      Scenario   `json:"bullish"`
	Bearish      Scenario   `json:"bearish"`
	Confidence   Confidence `json:"confidence"`
	Summary      string     `json:"summary"`
	CurrentPrice float64    `json:"current_price"`
}

type Regime struct {
	Trend       Trend  `json:"trend"`
	Strength    string `json:"strength"`
	Description string `json:"description"`
}

type Level struct {
	Price      float64       `json:"price"`
	Kind       LevelKind     `json:"kind"`
	Label      string        `json:"label"`
	TouchCount int           `json:"touch_count"`
	Recency    LevelRecency  `json:"recency"`
	Strength   LevelStrength `json:"strength"`
}

type Pivot struct {
	Price        float64 `json:"price"`
	Label        string  `json:"label"`
	Significance string  `json:"significance"`
}

type Scenario struct {
	Direction          Direction `json:"direction"`
	Trigger            string    `json:"trigger"`
	Target             float64   `json:"target"`
	TargetReason       string    `json:"target_reason"`
	Invalidation       float64   `json:"invalidation"`
	InvalidationReason string    `json:"invalidation_reason"`
}

type Confidence struct {
	Overall ConfidenceLevel `json:"overall"`
	Reasons []string        `json:"reasons"`
}

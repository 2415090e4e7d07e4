package repository

import (
	"fmt"
	"strings"
)

func (r *geminiAIRepository) promptAnalyzeChart(symbol, interval string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"You are a professional technical analyst. Analyze the attached %s price chart for %s and return a structured technical analysis.\n\n",
		interval, symbol,
	))

	sb.WriteString(`### Task:
1. Identify the market regime: trend (uptrend/downtrend/range/breakout/breakdown), its strength, and a one-line description.
2. Identify at most 3 meaningful support/resistance levels. Report only real reaction levels, never the current price itself.
3. Identify the single pivot price that separates bullish from bearish control.
4. Describe both a bullish and a bearish scenario, each with a trigger, a price target with reasoning, and an invalidation price with reasoning.
5. State your overall confidence (low/medium/high) with reasons.
6. Read the current price from the chart.

### Output:
Respond with ONLY a JSON object in exactly this shape, no prose around it:
{
  "regime": {"trend": "...", "strength": "...", "description": "..."},
  "levels": [{"price": 0, "kind": "support|resistance", "label": "...", "touch_count": 0, "recency": "recent|intermediate|old", "strength": "weak|moderate|strong"}],
  "pivot": {"price": 0, "label": "...", "significance": "..."},
  "scenarios": {
    "bullish": {"trigger": "...", "target": 0, "target_reason": "...", "invalidation": 0, "invalidation_reason": "..."},
    "bearish": {"trigger": "...", "target": 0, "target_reason": "...", "invalidation": 0, "invalidation_reason": "..."}
  },
  "confidence": {"overall": "low|medium|high", "reasons": ["..."]},
  "summary": "...",
  "current_price": 0
}`)

	return sb.String()
}

package dto

type MarkType string

const (
	MarkZone     MarkType = "zone"
	MarkLine     MarkType = "line"
	MarkArrow    MarkType = "arrow"
	MarkLabel    MarkType = "label"
	MarkCircle   MarkType = "circle"
	MarkRangeBox MarkType = "range_box"
	MarkPivot    MarkType = "pivot"
	MarkFakeout  MarkType = "fakeout"
)

type MarkRole string

const (
	RoleSupport      MarkRole = "support"
	RoleResistance   MarkRole = "resistance"
	RolePivot        MarkRole = "pivot"
	RoleTarget       MarkRole = "target"
	RoleInvalidation MarkRole = "invalidation"
	RoleBullPath     MarkRole = "bull_path"
	RoleBearPath     MarkRole = "bear_path"
	RoleCurrentPrice MarkRole = "current_price"
)

type LineStyle string

const (
	StyleSolid  LineStyle = "solid"
	StyleDashed LineStyle = "dashed"
)

// AnnotationMark is one atomic drawable primitive. Marks are value objects:
// they belong to the plan that emitted them and hold no back-references.
type AnnotationMark struct {
	Type      MarkType  `json:"type"`
	Role      MarkRole  `json:"role"`
	Price     float64   `json:"price,omitempty"`
	PriceHigh float64   `json:"price_high,omitempty"`
	PriceLow  float64   `json:"price_low,omitempty"`
	Text      string    `json:"text,omitempty"`
	Style     LineStyle `json:"style,omitempty"`
	Opacity   float64   `json:"opacity,omitempty"`
}

// AnnotationPlan is the ordered, bounded list of marks plus the narrative and
// theme. List order is draw order; later marks draw on top. A plan is never
// mutated after planning, re-analysis produces a new one.
type AnnotationPlan struct {
	Theme Theme            `json:"theme"`
	Story string           `json:"story"`
	Marks []AnnotationMark `json:"marks"`
}

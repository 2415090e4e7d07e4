package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"chart-annotator/config"
	"chart-annotator/internal/dto"
	"chart-annotator/pkg/logger"
	"chart-annotator/pkg/utils"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fixed visual constants. These are presentation choices, not data-derived.
const (
	lineWidth     = 2.0
	dashOn        = 6.0
	dashOff       = 4.0
	labelPad      = 4.0
	circleRadius  = 6.0
	markerInsetX  = 26.0
	arrowHalfW    = 5.0
	arrowHeadLen  = 8.0
	captionInset  = 8.0
	fontSize      = 13.0
	defaultZoneOp = 0.15
)

// ErrImageDecode is the one fatal failure of a render call: without a decoded
// base image there is nothing to draw onto.
var ErrImageDecode = fmt.Errorf("cannot decode base chart image")

// Renderer composites an annotation plan onto a base chart image. A single
// Renderer is safe for concurrent use: every call works on its own context and
// the font face is only read.
type Renderer struct {
	cfg    config.AnnotationConfig
	log    *logger.Logger
	mapper *CoordinateMapper
	face   font.Face
}

func New(cfg config.AnnotationConfig, log *logger.Logger) (*Renderer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build font face: %w", err)
	}

	return &Renderer{
		cfg:    cfg,
		log:    log,
		mapper: NewCoordinateMapper(cfg),
		face:   face,
	}, nil
}

func (r *Renderer) Mapper() *CoordinateMapper {
	return r.mapper
}

// Render decodes the base image, walks the plan's marks in list order and
// returns the composited PNG. Marks with degenerate coordinates are skipped;
// only a decode failure aborts the call.
func (r *Renderer) Render(baseImage []byte, plan *dto.AnnotationPlan, analysis *dto.Analysis) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(baseImage))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	bounds := img.Bounds()
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(r.face)

	area := r.mapper.ChartArea(bounds.Dx(), bounds.Dy())
	priceRange := r.mapper.PriceRange(analysis)
	pal := PaletteFor(plan.Theme)
	imageH := float64(bounds.Dy())

	for _, mark := range plan.Marks {
		switch mark.Type {
		case dto.MarkZone:
			r.drawZone(dc, mark, area, priceRange, pal, imageH)
		case dto.MarkLine:
			r.drawLine(dc, mark, area, priceRange, pal, imageH)
		case dto.MarkLabel:
			r.drawLabel(dc, mark, area, priceRange, pal, imageH)
		case dto.MarkRangeBox:
			r.drawRangeBox(dc, mark, area, priceRange, pal, imageH)
		case dto.MarkCircle, dto.MarkPivot:
			r.drawMarker(dc, mark, area, priceRange, pal, imageH)
		case dto.MarkArrow, dto.MarkFakeout:
			r.drawPath(dc, mark, area, priceRange, pal, imageH)
		default:
			// Unknown mark kinds are a planner bug, not a render failure.
			r.log.Warn("Skipping mark of unknown type", logger.StringField("type", string(mark.Type)))
		}
	}

	r.drawStory(dc, plan.Story, area, pal)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

// usable reports whether a computed pixel coordinate is finite and anywhere
// near the image. Marks failing this are skipped rather than aborting the pass.
func usable(imageH float64, ys ...float64) bool {
	for _, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return false
		}
		if y < -imageH || y > 2*imageH {
			return false
		}
	}
	return true
}

func withAlpha(c color.RGBA, opacity float64) color.NRGBA {
	if opacity <= 0 || opacity > 1 {
		opacity = defaultZoneOp
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity * 255)}
}

func (r *Renderer) drawZone(dc *gg.Context, mark dto.AnnotationMark, area ChartArea, pr PriceRange, pal Palette, imageH float64) {
	high, low := mark.PriceHigh, mark.PriceLow
	if high == 0 && low == 0 {
		high, low = mark.Price, mark.Price
	}

	yHigh := r.mapper.ToY(high, area, pr)
	yLow := r.mapper.ToY(low, area, pr)
	if !usable(imageH, yHigh, yLow) {
		r.log.Debug("Skipping zone mark with degenerate coordinates", logger.Float64Field("price", mark.Price))
		return
	}

	top := math.Min(yHigh, yLow)
	bottom := math.Max(yHigh, yLow)
	c := pal.roleColor(mark.Role)

	dc.SetColor(withAlpha(c, mark.Opacity))
	dc.DrawRectangle(area.Left, top, area.Width(), bottom-top)
	dc.Fill()

	// Solid center line through the band midpoint.
	mid := (top + bottom) / 2
	dc.SetColor(c)
	dc.SetLineWidth(lineWidth)
	dc.SetDash()
	dc.DrawLine(area.Left, mid, area.Right, mid)
	dc.Stroke()
}

func (r *Renderer) drawLine(dc *gg.Context, mark dto.AnnotationMark, area ChartArea, pr PriceRange, pal Palette, imageH float64) {
	y := r.mapper.ToY(mark.Price, area, pr)
	if !usable(imageH, y) {
		r.log.Debug("Skipping line mark with degenerate coordinates", logger.Float64Field("price", mark.Price))
		return
	}

	dc.SetColor(pal.roleColor(mark.Role))
	dc.SetLineWidth(lineWidth)
	if mark.Style == dto.StyleDashed {
		dc.SetDash(dashOn, dashOff)
	} else {
		dc.SetDash()
	}
	dc.DrawLine(area.Left, y, area.Right, y)
	dc.Stroke()
	dc.SetDash()
}

func (r *Renderer) drawLabel(dc *gg.Context, mark dto.AnnotationMark, area ChartArea, pr PriceRange, pal Palette, imageH float64) {
	if mark.Text == "" {
		return
	}
	y := r.mapper.ToY(mark.Price, area, pr)
	if !usable(imageH, y) {
		r.log.Debug("Skipping label mark with degenerate coordinates", logger.Float64Field("price", mark.Price))
		return
	}

	tw, th := dc.MeasureString(mark.Text)
	x := area.Right - tw - 2*labelPad - 4

	dc.SetColor(pal.LabelBG)
	dc.DrawRectangle(x, y-th/2-labelPad, tw+2*labelPad, th+2*labelPad)
	dc.Fill()

	dc.SetColor(pal.roleColor(mark.Role))
	dc.DrawString(mark.Text, x+labelPad, y+th/2-1)
}

func (r *Renderer) drawRangeBox(dc *gg.Context, mark dto.AnnotationMark, area ChartArea, pr PriceRange, pal Palette, imageH float64) {
	yHigh := r.mapper.ToY(mark.PriceHigh, area, pr)
	yLow := r.mapper.ToY(mark.PriceLow, area, pr)
	if !usable(imageH, yHigh, yLow) {
		r.log.Debug("Skipping range box with degenerate coordinates", logger.Float64Field("price_high", mark.PriceHigh))
		return
	}

	top := math.Min(yHigh, yLow)
	bottom := math.Max(yHigh, yLow)
	c := pal.roleColor(mark.Role)

	dc.SetColor(withAlpha(c, mark.Opacity))
	dc.DrawRectangle(area.Left, top, area.Width(), bottom-top)
	dc.Fill()

	dc.SetColor(c)
	dc.SetLineWidth(lineWidth)
	dc.SetDash(dashOn, dashOff)
	dc.DrawRectangle(area.Left, top, area.Width(), bottom-top)
	dc.Stroke()
	dc.SetDash()

	dc.DrawString("RANGE", area.Left+labelPad, top+fontSize+2)
}

func (r *Renderer) drawMarker(dc *gg.Context, mark dto.AnnotationMark, area ChartArea, pr PriceRange, pal Palette, imageH float64) {
	y := r.mapper.ToY(mark.Price, area, pr)
	if !usable(imageH, y) {
		r.log.Debug("Skipping marker with degenerate coordinates", logger.Float64Field("price", mark.Price))
		return
	}

	x := area.Right - markerInsetX
	c := pal.roleColor(mark.Role)

	dc.SetColor(c)
	dc.DrawCircle(x, y, circleRadius)
	dc.Fill()

	if mark.Text != "" {
		tw, th := dc.MeasureString(mark.Text)
		bx := x - tw - 2*labelPad - circleRadius - 4

		dc.SetColor(pal.LabelBG)
		dc.DrawRectangle(bx, y-th/2-labelPad, tw+2*labelPad, th+2*labelPad)
		dc.Fill()

		dc.SetColor(c)
		dc.DrawString(mark.Text, bx+labelPad, y+th/2-1)
	}
}

// drawPath renders scenario paths: a vertical connector from the entry price
// to the target with a filled triangle head at the target end.
func (r *Renderer) drawPath(dc *gg.Context, mark dto.AnnotationMark, area ChartArea, pr PriceRange, pal Palette, imageH float64) {
	from, to := mark.PriceLow, mark.PriceHigh
	if mark.Role == dto.RoleBearPath {
		from, to = mark.PriceHigh, mark.PriceLow
	}
	if from == 0 || to == 0 {
		return
	}

	yFrom := r.mapper.ToY(from, area, pr)
	yTo := r.mapper.ToY(to, area, pr)
	if !usable(imageH, yFrom, yTo) {
		r.log.Debug("Skipping path mark with degenerate coordinates", logger.Float64Field("price", mark.Price))
		return
	}

	x := area.Left + area.Width()*0.78
	c := pal.roleColor(mark.Role)

	dc.SetColor(c)
	dc.SetLineWidth(lineWidth)
	if mark.Style == dto.StyleDashed {
		dc.SetDash(dashOn, dashOff)
	} else {
		dc.SetDash()
	}
	dc.DrawLine(x, yFrom, x, yTo)
	dc.Stroke()
	dc.SetDash()

	// Triangle head pointing toward the target.
	dir := 1.0 // pixel Y grows downward
	if yTo < yFrom {
		dir = -1.0
	}
	dc.MoveTo(x, yTo)
	dc.LineTo(x-arrowHalfW, yTo-dir*arrowHeadLen)
	dc.LineTo(x+arrowHalfW, yTo-dir*arrowHeadLen)
	dc.ClosePath()
	dc.Fill()

	if mark.Text != "" {
		dc.DrawString(mark.Text, x+arrowHalfW+labelPad, yTo+fontSize/2-1)
	}
}

func (r *Renderer) drawStory(dc *gg.Context, story string, area ChartArea, pal Palette) {
	if story == "" {
		return
	}
	story = utils.TruncateString(story, r.cfg.StoryMaxChars)

	tw, th := dc.MeasureString(story)
	if tw > area.Width()-2*captionInset {
		return
	}

	x := area.Left + captionInset
	y := area.Top + captionInset

	dc.SetColor(pal.CaptionBG)
	dc.DrawRectangle(x, y, tw+2*labelPad, th+2*labelPad)
	dc.Fill()

	dc.SetColor(pal.Text)
	dc.DrawString(story, x+labelPad, y+th+labelPad/2)
}

package render

import (
	"fmt"
	"math"
	"time"

	"github.com/wricardo/neon-drive/game/engine"
)

// OpKind names a draw operation
type OpKind string

const (
	// OpClear resets its rect to transparent and carries no fill
	OpClear    OpKind = "clear"
	OpGradient OpKind = "gradient"
	OpRect     OpKind = "rect"
)

// Car geometry in canvas pixels
const (
	CarWidth        = 50.0
	CarHeight       = 80.0
	CarGroundOffset = 100.0
	CarFlightOffset = 150.0
	FlightBob       = 20.0
	SteerRange      = 100.0
	TrailWidth      = 80.0
	TrailHeight     = 20.0
	FlightPeriodMs  = 200.0
	RainbowPeriodMs = 50.0
)

// Op is one draw operation. Gradients run vertically from From to To.
type Op struct {
	Kind OpKind  `json:"op"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Fill *Color  `json:"fill,omitempty"`
	From *Color  `json:"from,omitempty"`
	To   *Color  `json:"to,omitempty"`
}

// Viewport is the canvas size a frame is drawn for
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultViewport is used until a client reports its size
func DefaultViewport() Viewport {
	return Viewport{Width: engine.DefaultViewportWidth, Height: engine.DefaultViewportHeight}
}

// Validate rejects empty or negative sizes
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || math.IsNaN(v.Width) || math.IsNaN(v.Height) {
		return fmt.Errorf("viewport must be positive, got %gx%g", v.Width, v.Height)
	}
	return nil
}

// Frame is the renderer output for one tick
type Frame struct {
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	Ops       []Op                 `json:"ops"`
	Score     int                  `json:"score"`
	Energy    float64              `json:"energy"`
	MaxEnergy float64              `json:"max_energy"`
	Speed     float64              `json:"speed"`
	Active    []engine.PowerUpKind `json:"active"`
	CarColor  Color                `json:"car_color"`
	Tick      int64                `json:"tick"`
}

// Theme holds the fixed palette of the scene
type Theme struct {
	SkyTop      Color
	SkyBottom   Color
	Road        Color
	TurboTrail  Color
	FallbackCar Color
	// Background fills a window before its first frame
	Background  Color
}

// DefaultTheme is the neon night palette
func DefaultTheme() Theme {
	return Theme{
		SkyTop:      MustParseColor("#0a0a2a"),
		SkyBottom:   MustParseColor("#1a1a4a"),
		Road:        MustParseColor("#333333"),
		TurboTrail:  Color{R: 255, G: 200, B: 0, A: 0.5},
		FallbackCar: MustParseColor(engine.DefaultCarColor),
		Background:  RGB(0, 0, 0),
	}
}

// Render draws state with the default theme. It does not modify state.
func Render(state *engine.GameState, vp Viewport, now time.Time, carColor string) *Frame {
	return DefaultTheme().Render(state, vp, now, carColor)
}

// Render draws state into a fresh frame, back to front: clear, sky,
// road, car, turbo trail.
func (t Theme) Render(state *engine.GameState, vp Viewport, now time.Time, carColor string) *Frame {
	w, h := vp.Width, vp.Height
	ms := float64(now.UnixMilli())

	car := t.CarColor(state, now, carColor)
	carX := w/2 + state.PlayerX*SteerRange - CarWidth/2
	carY := CarY(state, h, ms)

	ops := make([]Op, 0, 6)
	ops = append(ops,
		Op{Kind: OpClear, W: w, H: h},
		Op{Kind: OpGradient, W: w, H: h / 2, From: colorPtr(t.SkyTop), To: colorPtr(t.SkyBottom)},
		Op{Kind: OpRect, Y: h / 2, W: w, H: h / 2, Fill: colorPtr(t.Road)},
		Op{Kind: OpRect, X: carX, Y: carY, W: CarWidth, H: CarHeight, Fill: colorPtr(car)},
	)

	if state.IsActive(engine.Turbo) {
		ops = append(ops, Op{
			Kind: OpRect,
			X:    w/2 + state.PlayerX*SteerRange - TrailWidth/2,
			Y:    carY + CarHeight,
			W:    TrailWidth,
			H:    TrailHeight,
			Fill: colorPtr(t.TurboTrail),
		})
	}

	return &Frame{
		Width:     w,
		Height:    h,
		Ops:       ops,
		Score:     state.DisplayScore(),
		Energy:    state.Energy,
		MaxEnergy: state.MaxEnergy,
		Speed:     state.Speed,
		Active:    append([]engine.PowerUpKind{}, state.ActiveKinds()...),
		CarColor:  car,
		Tick:      state.Ticks,
	}
}

// CarColor picks the rainbow hue, the preferred color, or the fallback
func (t Theme) CarColor(state *engine.GameState, now time.Time, preferred string) Color {
	if state.IsActive(engine.Rainbow) {
		return Hue(float64(now.UnixMilli()) / RainbowPeriodMs)
	}
	if c, ok := ParseColor(preferred); ok {
		return c
	}
	return t.FallbackCar
}

// CarY is the top edge of the car; flight lifts it and bobs it on a sine
func CarY(state *engine.GameState, height, ms float64) float64 {
	if state.IsActive(engine.Flight) {
		return height - CarFlightOffset + math.Sin(ms/FlightPeriodMs)*FlightBob
	}
	return height - CarGroundOffset
}

func colorPtr(c Color) *Color {
	return &c
}

package render

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/neon-drive/game/engine"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newState() *engine.GameState {
	return engine.InitGameStateFromConfig(engine.DefaultConfig())
}

func TestRender_DrawOrder(t *testing.T) {
	state := newState()
	frame := Render(state, Viewport{Width: 800, Height: 600}, t0, "")

	if len(frame.Ops) != 4 {
		t.Fatalf("Expected 4 ops without turbo, got %d", len(frame.Ops))
	}

	wantKinds := []OpKind{OpClear, OpGradient, OpRect, OpRect}
	for i, kind := range wantKinds {
		if frame.Ops[i].Kind != kind {
			t.Errorf("Op %d: expected %s, got %s", i, kind, frame.Ops[i].Kind)
		}
	}

	if wipe := frame.Ops[0]; wipe.W != 800 || wipe.H != 600 || wipe.Fill != nil {
		t.Errorf("Expected a transparent full-canvas clear, got %+v", wipe)
	}

	sky := frame.Ops[1]
	if sky.X != 0 || sky.Y != 0 || sky.W != 800 || sky.H != 300 {
		t.Errorf("Unexpected sky rect %+v", sky)
	}
	if sky.From.CSS() != "rgba(10,10,42,1)" || sky.To.CSS() != "rgba(26,26,74,1)" {
		t.Errorf("Unexpected sky gradient %s -> %s", sky.From, sky.To)
	}

	road := frame.Ops[2]
	if road.Y != 300 || road.H != 300 || road.Fill.CSS() != "rgba(51,51,51,1)" {
		t.Errorf("Unexpected road %+v", road)
	}
}

func TestRender_CarGeometry(t *testing.T) {
	tests := []struct {
		name    string
		playerX float64
		wantX   float64
	}{
		{"center", 0, 375},
		{"right", 1, 475},
		{"left", -1, 275},
		{"half left", -0.5, 325},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newState()
			state.PlayerX = tt.playerX
			frame := Render(state, Viewport{Width: 800, Height: 600}, t0, "")
			car := frame.Ops[3]
			if car.X != tt.wantX {
				t.Errorf("Expected car x %g, got %g", tt.wantX, car.X)
			}
			if car.Y != 500 {
				t.Errorf("Expected grounded car y 500, got %g", car.Y)
			}
			if car.W != CarWidth || car.H != CarHeight {
				t.Errorf("Expected car size 50x80, got %gx%g", car.W, car.H)
			}
		})
	}
}

func TestRender_FlightBobs(t *testing.T) {
	state := newState()
	state.ActivatePowerUp(engine.Flight, t0)

	frame := Render(state, Viewport{Width: 800, Height: 600}, t0, "")
	ms := float64(t0.UnixMilli())
	want := 600 - 150 + math.Sin(ms/200)*20

	if math.Abs(frame.Ops[3].Y-want) > 1e-9 {
		t.Errorf("Expected flying car y %g, got %g", want, frame.Ops[3].Y)
	}
	if frame.Ops[3].Y < 430 || frame.Ops[3].Y > 470 {
		t.Errorf("Expected car within the bob band, got %g", frame.Ops[3].Y)
	}
}

func TestRender_TurboTrail(t *testing.T) {
	state := newState()
	state.PlayerX = 0.5
	state.ActivatePowerUp(engine.Turbo, t0)

	frame := Render(state, Viewport{Width: 800, Height: 600}, t0, "")
	if len(frame.Ops) != 5 {
		t.Fatalf("Expected 5 ops with turbo, got %d", len(frame.Ops))
	}

	trail := frame.Ops[4]
	if trail.X != 400+50-40 || trail.Y != 580 || trail.W != 80 || trail.H != 20 {
		t.Errorf("Unexpected trail rect %+v", trail)
	}
	if trail.Fill.CSS() != "rgba(255,200,0,0.5)" {
		t.Errorf("Unexpected trail color %s", trail.Fill)
	}
}

func TestRender_CarColor(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		want      string
	}{
		{"missing falls back to red", "", "rgba(255,0,0,1)"},
		{"unparseable falls back to red", "not-a-color", "rgba(255,0,0,1)"},
		{"short hex", "#0af", "rgba(0,170,255,1)"},
		{"long hex", "#00ff00", "rgba(0,255,0,1)"},
		{"name", "royalblue", "rgba(65,105,225,1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Render(newState(), DefaultViewport(), t0, tt.preferred)
			if got := frame.Ops[3].Fill.CSS(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if frame.CarColor.CSS() != tt.want {
				t.Errorf("Expected frame car color %s, got %s", tt.want, frame.CarColor)
			}
		})
	}
}

func TestRender_RainbowOverridesPreference(t *testing.T) {
	state := newState()
	state.ActivatePowerUp(engine.Rainbow, t0)

	// 18000ms / 50 = 360 degrees, i.e. hue 0 (red)
	at := time.UnixMilli(18000)
	if got := DefaultTheme().CarColor(state, at, "#00f"); got.CSS() != "rgba(255,0,0,1)" {
		t.Errorf("Expected hue 0 red, got %s", got)
	}

	// 6000ms / 50 = 120 degrees, green
	at = time.UnixMilli(6000)
	if got := DefaultTheme().CarColor(state, at, "#00f"); got.CSS() != "rgba(0,255,0,1)" {
		t.Errorf("Expected hue 120 green, got %s", got)
	}
}

func TestRender_DoesNotMutateState(t *testing.T) {
	state := newState()
	state.ActivatePowerUp(engine.Turbo, t0)
	before := state.Clone()

	Render(state, DefaultViewport(), t0.Add(time.Hour), "")

	if state.Score != before.Score || state.Energy != before.Energy || !state.IsActive(engine.Turbo) {
		t.Error("Render must not change state, even after expiry time")
	}
}

func TestRender_HUDFields(t *testing.T) {
	state := newState()
	state.Score = 99.9
	state.ActivatePowerUp(engine.Flight, t0)

	frame := Render(state, DefaultViewport(), t0, "")
	if frame.Score != 99 {
		t.Errorf("Expected floored score 99, got %d", frame.Score)
	}
	if frame.Energy != 80 || frame.MaxEnergy != 100 {
		t.Errorf("Unexpected energy %g/%g", frame.Energy, frame.MaxEnergy)
	}
	if len(frame.Active) != 1 || frame.Active[0] != engine.Flight {
		t.Errorf("Expected [flight] active, got %v", frame.Active)
	}
}

func TestFrame_JSONShape(t *testing.T) {
	state := newState()
	state.ActivatePowerUp(engine.Turbo, t0)
	frame := Render(state, DefaultViewport(), t0, "#fff")

	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("Failed to marshal frame: %v", err)
	}
	s := string(data)

	for _, want := range []string{`{"op":"clear","x":0,"y":0,"w":800,"h":600}`, `"op":"gradient"`, `"fill":"rgba(255,200,0,0.5)"`, `"car_color":"rgba(255,255,255,1)"`, `"active":["turbo"]`} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %s in %s", want, s)
		}
	}

	var decoded Frame
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal frame: %v", err)
	}
	if decoded.Ops[4].Fill.A != 0.5 {
		t.Errorf("Expected decoded trail alpha 0.5, got %g", decoded.Ops[4].Fill.A)
	}
}

func TestViewport_Validate(t *testing.T) {
	if err := DefaultViewport().Validate(); err != nil {
		t.Errorf("Expected default viewport to be valid: %v", err)
	}
	for _, vp := range []Viewport{{0, 600}, {800, 0}, {-1, 10}, {math.NaN(), 10}} {
		if err := vp.Validate(); err == nil {
			t.Errorf("Expected error for %+v", vp)
		}
	}
}

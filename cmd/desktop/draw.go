package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

// gradientBandHeight is the height in pixels of one solid gradient band
const gradientBandHeight = 4.0

// band is a solid horizontal strip approximating part of a gradient
type band struct {
	y, h  float64
	color render.Color
}

// drawFrame replays the frame's ops onto screen in order
func drawFrame(screen *ebiten.Image, frame *render.Frame) {
	for _, op := range frame.Ops {
		switch op.Kind {
		case render.OpClear:
			screen.Clear()
		case render.OpRect:
			if op.Fill != nil {
				vector.DrawFilledRect(screen, float32(op.X), float32(op.Y), float32(op.W), float32(op.H), *op.Fill, false)
			}
		case render.OpGradient:
			for _, b := range gradientBands(op) {
				vector.DrawFilledRect(screen, float32(op.X), float32(b.y), float32(op.W), float32(b.h), b.color, false)
			}
		}
	}
}

// gradientBands splits a vertical gradient op into solid strips, each
// colored at its midpoint
func gradientBands(op render.Op) []band {
	if op.From == nil || op.To == nil || op.H <= 0 {
		return nil
	}

	n := int(math.Ceil(op.H / gradientBandHeight))
	bands := make([]band, 0, n)
	for i := 0; i < n; i++ {
		y := op.Y + float64(i)*gradientBandHeight
		h := math.Min(gradientBandHeight, op.Y+op.H-y)
		t := (float64(i) + 0.5) / float64(n)
		bands = append(bands, band{y: y, h: h, color: lerpColor(*op.From, *op.To, t)})
	}
	return bands
}

func lerpColor(a, b render.Color, t float64) render.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return render.Color{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: a.A + (b.A-a.A)*t,
	}
}

// hudLines is the text overlay for frame
func hudLines(frame *render.Frame, lastKey *engine.KeyResult) []string {
	active := "none"
	if len(frame.Active) > 0 {
		names := make([]string, len(frame.Active))
		for i, kind := range frame.Active {
			names[i] = string(kind)
		}
		active = strings.Join(names, ", ")
	}

	lines := []string{
		fmt.Sprintf("Score: %d", frame.Score),
		fmt.Sprintf("Energy: %.0f/%.0f", frame.Energy, frame.MaxEnergy),
		fmt.Sprintf("Speed: %.2f", frame.Speed),
		fmt.Sprintf("Active: %s", active),
	}

	if lastKey != nil && lastKey.PowerUp != "" {
		switch {
		case lastKey.Activated:
			lines = append(lines, fmt.Sprintf("%s activated", lastKey.PowerUp))
		case lastKey.Gated:
			lines = append(lines, fmt.Sprintf("%s locked: key gate", lastKey.PowerUp))
		default:
			lines = append(lines, fmt.Sprintf("%s: not enough energy", lastKey.PowerUp))
		}
	}
	return lines
}

func drawHUD(screen *ebiten.Image, lines []string) {
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*16)
	}
}

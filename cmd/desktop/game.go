package main

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

const (
	screenWidth  = 800
	screenHeight = 600
)

// frameInput is everything the player did since the previous frame
type frameInput struct {
	keys    []string
	touches []float64
}

// Game adapts the engine and renderer to ebiten.Game
type Game struct {
	engine   *engine.GameEngine
	theme    render.Theme
	carColor string
	clock    func() time.Time

	mu       sync.RWMutex
	viewport render.Viewport
	frame    *render.Frame
	lastKey  *engine.KeyResult
}

// NewGame wraps eng; carColor may be empty to use the profile default
func NewGame(eng *engine.GameEngine, carColor string) *Game {
	if carColor == "" {
		carColor = eng.GetConfig().DefaultCarColor
	}
	return &Game{
		engine:   eng,
		theme:    render.DefaultTheme(),
		carColor: carColor,
		clock:    time.Now,
		viewport: render.Viewport{Width: screenWidth, Height: screenHeight},
	}
}

// Update is called once per tick by ebiten
func (g *Game) Update() error {
	g.step(g.clock(), readInput())
	return nil
}

// step applies input, advances one frame and renders it. Input is handled
// before the frame so a power-up pressed this tick already counts.
func (g *Game) step(now time.Time, in frameInput) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range in.keys {
		result := g.engine.HandleKey(key, now)
		if !result.Handled {
			continue
		}
		g.lastKey = &result
		if result.PowerUp != "" {
			log.Debug("key", "key", key, "power_up", result.PowerUp, "activated", result.Activated, "gated", result.Gated)
		}
	}
	for _, x := range in.touches {
		g.engine.Touch(x, g.viewport.Width)
	}

	g.engine.Update(now)
	g.frame = g.theme.Render(g.engine.GetState(), g.viewport, now, g.carColor)
}

// Draw paints the latest frame and the HUD
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.frame == nil {
		screen.Fill(g.theme.Background)
		return
	}
	drawFrame(screen, g.frame)
	drawHUD(screen, hudLines(g.frame, g.lastKey))
}

// Layout follows the window size so the scene is drawn for the real canvas
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return screenWidth, screenHeight
	}
	g.mu.Lock()
	g.viewport = render.Viewport{Width: float64(outsideWidth), Height: float64(outsideHeight)}
	g.mu.Unlock()
	return outsideWidth, outsideHeight
}

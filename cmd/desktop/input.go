package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/wricardo/neon-drive/game/engine"
)

// Held steering keys repeat like browser keydown events
const (
	repeatDelayTicks    = 20
	repeatIntervalTicks = 4
)

// keyNames maps physical keys to the key strings profiles bind
var keyNames = map[ebiten.Key]string{
	ebiten.KeyArrowLeft:  engine.KeyArrowLeft,
	ebiten.KeyArrowRight: engine.KeyArrowRight,

	ebiten.KeyDigit0: "0", ebiten.KeyDigit1: "1", ebiten.KeyDigit2: "2", ebiten.KeyDigit3: "3", ebiten.KeyDigit4: "4",
	ebiten.KeyDigit5: "5", ebiten.KeyDigit6: "6", ebiten.KeyDigit7: "7", ebiten.KeyDigit8: "8", ebiten.KeyDigit9: "9",
	ebiten.KeyNumpad0: "0", ebiten.KeyNumpad1: "1", ebiten.KeyNumpad2: "2", ebiten.KeyNumpad3: "3", ebiten.KeyNumpad4: "4",
	ebiten.KeyNumpad5: "5", ebiten.KeyNumpad6: "6", ebiten.KeyNumpad7: "7", ebiten.KeyNumpad8: "8", ebiten.KeyNumpad9: "9",

	ebiten.KeyA: "a", ebiten.KeyB: "b", ebiten.KeyC: "c", ebiten.KeyD: "d", ebiten.KeyE: "e", ebiten.KeyF: "f",
	ebiten.KeyG: "g", ebiten.KeyH: "h", ebiten.KeyI: "i", ebiten.KeyJ: "j", ebiten.KeyK: "k", ebiten.KeyL: "l",
	ebiten.KeyM: "m", ebiten.KeyN: "n", ebiten.KeyO: "o", ebiten.KeyP: "p", ebiten.KeyQ: "q", ebiten.KeyR: "r",
	ebiten.KeyS: "s", ebiten.KeyT: "t", ebiten.KeyU: "u", ebiten.KeyV: "v", ebiten.KeyW: "w", ebiten.KeyX: "x",
	ebiten.KeyY: "y", ebiten.KeyZ: "z",
}

var steeringKeys = []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyArrowRight}

// keyName returns the bound name of k
func keyName(k ebiten.Key) (string, bool) {
	name, ok := keyNames[k]
	return name, ok
}

// repeats reports whether a key held for duration ticks fires this tick
func repeats(duration int) bool {
	if duration == 1 {
		return true
	}
	if duration < repeatDelayTicks {
		return false
	}
	return (duration-repeatDelayTicks)%repeatIntervalTicks == 0
}

// readInput collects this tick's key presses, held steering and held pointers
func readInput() frameInput {
	var in frameInput

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if isSteering(k) {
			continue
		}
		if name, ok := keyName(k); ok {
			in.keys = append(in.keys, name)
		}
	}
	for _, k := range steeringKeys {
		if repeats(inpututil.KeyPressDuration(k)) {
			name, _ := keyName(k)
			in.keys = append(in.keys, name)
		}
	}

	// Held pointers are read every tick so the car follows a drag
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, _ := ebiten.CursorPosition()
		in.touches = append(in.touches, float64(x))
	}
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, _ := ebiten.TouchPosition(ids[0])
		in.touches = append(in.touches, float64(x))
	}

	return in
}

func isSteering(k ebiten.Key) bool {
	for _, s := range steeringKeys {
		if k == s {
			return true
		}
	}
	return false
}

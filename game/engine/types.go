package engine

import "time"

// PowerUpKind identifies one of the timed power-ups
type PowerUpKind string

const (
	Turbo   PowerUpKind = "turbo"
	Flight  PowerUpKind = "flight"
	Rainbow PowerUpKind = "rainbow"
)

// PowerUpKinds lists every power-up in key order (1, 2, 3)
var PowerUpKinds = []PowerUpKind{Turbo, Flight, Rainbow}

const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"

	// Defaults of the classic tuning profile
	DefaultMaxEnergy      = 100.0
	DefaultMaxSpeed       = 5.0
	DefaultAcceleration   = 0.1
	DefaultEnergyRegen    = 0.05
	DefaultSteerStep      = 0.1
	DefaultFrameRate      = 60
	DefaultCarColor       = "#f00"
	EnergyCostDivisor     = 100.0
	TurboDurationMs       = 3000
	FlightDurationMs      = 2000
	RainbowDurationMs     = 4000
	TurboSpeedMultiplier  = 2.0
	TurboScoreBonus       = 1.5
	MaxFrameRate          = 240
	MaxTickFramesPerCall  = 600
	WebSocketBufferSize   = 256
	MinPlayerX            = -1.0
	MaxPlayerX            = 1.0
	DefaultViewportWidth  = 800
	DefaultViewportHeight = 600
)

// PowerUp is the runtime record of one power-up kind
type PowerUp struct {
	Kind       PowerUpKind `json:"kind"`
	Active     bool        `json:"active"`
	DurationMs int64       `json:"duration_ms"`
	Multiplier float64     `json:"multiplier"`
	ScoreBonus float64     `json:"score_bonus"`
	EndTime    time.Time   `json:"end_time"`
}

// Duration returns the activation length as a time.Duration
func (p *PowerUp) Duration() time.Duration {
	return time.Duration(p.DurationMs) * time.Millisecond
}

// Cost is the energy charged for one activation
func (p *PowerUp) Cost() float64 {
	return float64(p.DurationMs) / EnergyCostDivisor
}

// Remaining returns how long the power-up stays active after now
func (p *PowerUp) Remaining(now time.Time) time.Duration {
	if !p.Active || !now.Before(p.EndTime) {
		return 0
	}
	return p.EndTime.Sub(now)
}

// Effect is one entry of the activation log
type Effect struct {
	ID          string      `json:"id"`
	Kind        PowerUpKind `json:"kind"`
	ActivatedAt time.Time   `json:"activated_at"`
	EnergyAfter float64     `json:"energy_after"`
	Number      int         `json:"number"`
}

// GameState represents the complete game state of one driver
type GameState struct {
	Score      float64                  `json:"score"`
	PlayerX    float64                  `json:"player_x"`
	Speed      float64                  `json:"speed"`
	Energy     float64                  `json:"energy"`
	MaxEnergy  float64                  `json:"max_energy"`
	Effects    []Effect                 `json:"effects"`
	PowerUps   map[PowerUpKind]*PowerUp `json:"power_ups"`
	Ticks      int64                    `json:"ticks"`
	LastUpdate time.Time                `json:"last_update"`
	ConfigName string                   `json:"config_name"`
}

// Clone returns a deep copy safe to hand to other goroutines
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Effects = make([]Effect, len(gs.Effects))
	copy(c.Effects, gs.Effects)
	c.PowerUps = make(map[PowerUpKind]*PowerUp, len(gs.PowerUps))
	for kind, p := range gs.PowerUps {
		pc := *p
		c.PowerUps[kind] = &pc
	}
	return &c
}

// PowerUp returns the record for kind, or nil when the state has none
func (gs *GameState) PowerUp(kind PowerUpKind) *PowerUp {
	if gs.PowerUps == nil {
		return nil
	}
	return gs.PowerUps[kind]
}

// IsActive reports whether the given power-up is currently on
func (gs *GameState) IsActive(kind PowerUpKind) bool {
	p := gs.PowerUp(kind)
	return p != nil && p.Active
}

// AnyActive reports whether at least one power-up is on
func (gs *GameState) AnyActive() bool {
	for _, p := range gs.PowerUps {
		if p.Active {
			return true
		}
	}
	return false
}

// ActiveKinds returns the active power-ups in key order
func (gs *GameState) ActiveKinds() []PowerUpKind {
	var kinds []PowerUpKind
	for _, kind := range PowerUpKinds {
		if gs.IsActive(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// DisplayScore is the floored score shown to the player
func (gs *GameState) DisplayScore() int {
	return int(gs.Score)
}

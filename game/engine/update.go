package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Advance runs one frame of the state updater: expiry, speed, score, regen
func (gs *GameState) Advance(now time.Time, config *GameConfig) {
	gs.ExpirePowerUps(now)

	speedMultiplier, scoreBonus := gs.ActiveFactors()

	// The cap applies immediately, so speed snaps down when turbo ends
	gs.Speed = math.Min(gs.Speed+config.Acceleration, config.MaxSpeed*speedMultiplier)
	if gs.Speed < 0 {
		gs.Speed = 0
	}

	gs.Score += gs.Speed * scoreBonus

	// Regeneration reads the power-ups after the expiry pass
	if gs.Energy < gs.MaxEnergy && !gs.AnyActive() {
		gs.Energy = math.Min(gs.Energy+config.EnergyRegen, gs.MaxEnergy)
	}

	gs.Ticks++
	gs.LastUpdate = now
}

// ExpirePowerUps switches off every power-up whose end time has passed.
// It returns the kinds that expired on this call.
func (gs *GameState) ExpirePowerUps(now time.Time) []PowerUpKind {
	var expired []PowerUpKind
	for _, kind := range PowerUpKinds {
		p := gs.PowerUp(kind)
		if p != nil && p.Active && !now.Before(p.EndTime) {
			p.Active = false
			expired = append(expired, kind)
		}
	}
	return expired
}

// ActiveFactors returns the combined speed multiplier and score bonus
// of the active power-ups
func (gs *GameState) ActiveFactors() (speedMultiplier, scoreBonus float64) {
	speedMultiplier, scoreBonus = 1, 1
	for _, p := range gs.PowerUps {
		if !p.Active {
			continue
		}
		speedMultiplier *= orOne(p.Multiplier)
		scoreBonus *= orOne(p.ScoreBonus)
	}
	return speedMultiplier, scoreBonus
}

// ActivatePowerUp turns kind on when energy strictly exceeds its cost.
// Insufficient energy leaves the state untouched.
func (gs *GameState) ActivatePowerUp(kind PowerUpKind, now time.Time) bool {
	p := gs.PowerUp(kind)
	if p == nil {
		return false
	}

	cost := p.Cost()
	if !(gs.Energy > cost) {
		return false
	}

	// Re-activation restarts the timer and charges again
	p.Active = true
	p.EndTime = now.Add(p.Duration())
	gs.Energy -= cost

	gs.Effects = append(gs.Effects, Effect{
		ID:          uuid.NewString(),
		Kind:        kind,
		ActivatedAt: now,
		EnergyAfter: gs.Energy,
		Number:      len(gs.Effects) + 1,
	})

	return true
}

// Steer moves the car horizontally by delta, clamped to the road
func (gs *GameState) Steer(delta float64) {
	gs.PlayerX = clamp(gs.PlayerX+delta, MinPlayerX, MaxPlayerX)
}

// TouchAt maps a touch x coordinate to an absolute position relative to
// the canvas center. A non-positive width is ignored.
func (gs *GameState) TouchAt(clientX, canvasWidth float64) bool {
	if canvasWidth <= 0 {
		return false
	}
	half := canvasWidth / 2
	gs.PlayerX = clamp((clientX-half)/half, MinPlayerX, MaxPlayerX)
	return true
}

package engine

import (
	"fmt"
	"math"
)

// clamp limits v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SpeedCap returns the speed ceiling for the given combined multiplier
func SpeedCap(config *GameConfig, multiplier float64) float64 {
	return config.MaxSpeed * orOne(multiplier)
}

// TicksToReach counts frames needed to ramp from speed 0 to target
func TicksToReach(config *GameConfig, target float64) int {
	if config.Acceleration <= 0 || target <= 0 {
		return 0
	}
	return int(math.Ceil(target/config.Acceleration - 1e-9))
}

// RegenTicks counts idle frames needed to recover amount of energy
func RegenTicks(config *GameConfig, amount float64) int {
	if amount <= 0 {
		return 0
	}
	if config.EnergyRegen <= 0 {
		return -1
	}
	return int(math.Ceil(amount/config.EnergyRegen - 1e-9))
}

// PowerUpCost returns the activation cost of kind under config
func PowerUpCost(config *GameConfig, kind PowerUpKind) float64 {
	return float64(config.PowerUps[kind].DurationMs) / EnergyCostDivisor
}

// IsKeyGateRedundant reports whether the coarse key threshold of kind
// never blocks a request the cost check would accept
func IsKeyGateRedundant(config *GameConfig, kind PowerUpKind) bool {
	return config.PowerUps[kind].KeyThreshold <= PowerUpCost(config, kind)
}

// AnalyzeEnergy summarizes the energy economy of kind for status displays
func AnalyzeEnergy(state *GameState, config *GameConfig, kind PowerUpKind) string {
	p := state.PowerUp(kind)
	if p == nil {
		return "UNKNOWN: no such power-up"
	}
	if p.Active {
		return "ACTIVE: regeneration paused"
	}
	cost := p.Cost()
	if state.Energy > cost {
		return "READY"
	}
	if config.EnergyRegen <= 0 {
		return "BLOCKED: energy does not regenerate"
	}
	// Activation needs energy strictly above the cost
	ticks := int(math.Floor((cost-state.Energy)/config.EnergyRegen)) + 1
	return fmt.Sprintf("CHARGING: ready in %d idle frames", ticks)
}

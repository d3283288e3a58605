package main

import (
	"fmt"
	"sort"

	"github.com/wricardo/neon-drive/game/engine"
)

// Strategy decides which power-ups to request before the next batch of frames
type Strategy interface {
	Name() string
	Next(state *engine.GameState, config *engine.GameConfig) []engine.PowerUpKind
}

// cruiseStrategy never uses power-ups and serves as the baseline
type cruiseStrategy struct{}

func (cruiseStrategy) Name() string { return "cruise" }

func (cruiseStrategy) Next(*engine.GameState, *engine.GameConfig) []engine.PowerUpKind {
	return nil
}

// turboStrategy keeps turbo running whenever it can pay for it
type turboStrategy struct{}

func (turboStrategy) Name() string { return "turbo" }

func (turboStrategy) Next(state *engine.GameState, config *engine.GameConfig) []engine.PowerUpKind {
	if affordable(state, config, engine.Turbo) {
		return []engine.PowerUpKind{engine.Turbo}
	}
	return nil
}

// greedyStrategy starts every inactive power-up it can afford, the ones
// that multiply score first
type greedyStrategy struct{}

func (greedyStrategy) Name() string { return "greedy" }

func (greedyStrategy) Next(state *engine.GameState, config *engine.GameConfig) []engine.PowerUpKind {
	kinds := append([]engine.PowerUpKind{}, engine.PowerUpKinds...)
	sort.SliceStable(kinds, func(i, j int) bool {
		return scoreWeight(config, kinds[i]) > scoreWeight(config, kinds[j])
	})

	energy := state.Energy
	var picks []engine.PowerUpKind
	for _, kind := range kinds {
		cost := engine.PowerUpCost(config, kind)
		if state.IsActive(kind) || !(energy > cost) {
			continue
		}
		picks = append(picks, kind)
		energy -= cost
	}
	return picks
}

// bankStrategy waits for a full bar before each turbo so regen is never
// wasted at the cap
type bankStrategy struct{}

func (bankStrategy) Name() string { return "bank" }

func (bankStrategy) Next(state *engine.GameState, config *engine.GameConfig) []engine.PowerUpKind {
	if state.Energy >= state.MaxEnergy && affordable(state, config, engine.Turbo) {
		return []engine.PowerUpKind{engine.Turbo}
	}
	return nil
}

var strategies = []Strategy{cruiseStrategy{}, turboStrategy{}, greedyStrategy{}, bankStrategy{}}

// strategyByName looks up a strategy; "all" is handled by the caller
func strategyByName(name string) (Strategy, error) {
	for _, s := range strategies {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown strategy '%s'", name)
}

// affordable reports whether kind is off and its cost can be paid
func affordable(state *engine.GameState, config *engine.GameConfig, kind engine.PowerUpKind) bool {
	return !state.IsActive(kind) && state.Energy > engine.PowerUpCost(config, kind)
}

// scoreWeight is the score gain factor of kind while active
func scoreWeight(config *engine.GameConfig, kind engine.PowerUpKind) float64 {
	pc := config.PowerUps[kind]
	weight := 1.0
	if pc.Multiplier > 0 {
		weight *= pc.Multiplier
	}
	if pc.ScoreBonus > 0 {
		weight *= pc.ScoreBonus
	}
	return weight
}

// Command analyze prints quick, human-readable heuristics about the tuning
// profiles in the project's configs directory. For each profile it reports
// the speed ramp, how many back-to-back activations a fresh session can
// afford, how long each power-up takes to recharge, and a simulated score
// comparison between plain cruising and an opening turbo.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wricardo/neon-drive/game/config"
	"github.com/wricardo/neon-drive/game/engine"
)

// simulatedSeconds is the length of the cruise simulation
const simulatedSeconds = 10

// PowerUpAnalysis describes the energy economy of one power-up
type PowerUpAnalysis struct {
	Kind engine.PowerUpKind
	Cost float64
	// BackToBack counts activations affordable from starting energy without regen
	BackToBack int
	// RechargeFrames is -1 when the profile has no regen
	RechargeFrames int
	GateRedundant  bool
	Status         string
}

// Analysis is the summary printed for one profile
type Analysis struct {
	ConfigID     string
	Name         string
	RampFrames   int
	RampSeconds  float64
	FullRegen    int
	PowerUps     []PowerUpAnalysis
	CruiseScore  float64
	TurboScore   float64
	TurboStarted bool
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	manager, err := config.NewManager(configDir)
	if err != nil {
		fmt.Printf("Error opening config directory: %v\n", err)
		os.Exit(1)
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		fmt.Printf("Error listing configs: %v\n", err)
		os.Exit(1)
	}

	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)

		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Printf("Error loading profile: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeConfig(info.ConfigID, cfg))
	}
}

func analyzeConfig(id string, cfg *engine.GameConfig) Analysis {
	a := Analysis{
		ConfigID:   id,
		Name:       cfg.Name,
		RampFrames: engine.TicksToReach(cfg, cfg.MaxSpeed),
		FullRegen:  engine.RegenTicks(cfg, cfg.MaxEnergy),
	}
	if cfg.FrameRate > 0 {
		a.RampSeconds = float64(a.RampFrames) / float64(cfg.FrameRate)
	}

	fresh := engine.InitGameStateFromConfig(cfg)
	for _, kind := range engine.PowerUpKinds {
		cost := engine.PowerUpCost(cfg, kind)

		backToBack := 0
		for energy := cfg.StartingEnergy; energy > cost; energy -= cost {
			backToBack++
		}

		a.PowerUps = append(a.PowerUps, PowerUpAnalysis{
			Kind:           kind,
			Cost:           cost,
			BackToBack:     backToBack,
			RechargeFrames: engine.RegenTicks(cfg, cost),
			GateRedundant:  cfg.PowerUps[kind].KeyThreshold > 0 && engine.IsKeyGateRedundant(cfg, kind),
			Status:         engine.AnalyzeEnergy(fresh, cfg, kind),
		})
	}

	a.CruiseScore, _ = simulate(cfg, false)
	a.TurboScore, a.TurboStarted = simulate(cfg, true)
	return a
}

// simulate runs simulatedSeconds of frames on a synthetic clock and returns
// the final score. With turbo set, turbo is requested before the first frame.
func simulate(cfg *engine.GameConfig, turbo bool) (float64, bool) {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return 0, false
	}

	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = engine.DefaultFrameRate
	}
	interval := time.Second / time.Duration(frameRate)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	started := false
	if turbo {
		started = eng.Activate(engine.Turbo, now)
	}

	for i := 0; i < simulatedSeconds*frameRate; i++ {
		now = now.Add(interval)
		eng.Update(now)
	}
	return eng.GetScore(), started
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s (config_id: %s)\n", a.Name, a.ConfigID)
	fmt.Fprintf(w, "Speed Ramp: %d frames (%.2fs)\n", a.RampFrames, a.RampSeconds)
	if a.FullRegen < 0 {
		fmt.Fprintf(w, "⚠️  WARNING: energy never regenerates, every activation is permanent\n")
	} else {
		fmt.Fprintf(w, "Full Regen: %d idle frames\n", a.FullRegen)
	}

	for _, p := range a.PowerUps {
		recharge := "never"
		if p.RechargeFrames >= 0 {
			recharge = fmt.Sprintf("%d frames", p.RechargeFrames)
		}
		fmt.Fprintf(w, "  %-8s cost %5.1f | back-to-back %d | recharge %s | %s\n",
			p.Kind, p.Cost, p.BackToBack, recharge, p.Status)
		if p.BackToBack == 0 {
			fmt.Fprintf(w, "  ⚠️  %s cannot be activated by a fresh session\n", p.Kind)
		}
		if p.GateRedundant {
			fmt.Fprintf(w, "  ℹ️  %s key gate never blocks more than the cost check\n", p.Kind)
		}
	}

	fmt.Fprintf(w, "Cruise Score (%ds): %.0f\n", simulatedSeconds, a.CruiseScore)
	if a.TurboStarted {
		fmt.Fprintf(w, "Opening Turbo Score (%ds): %.0f (%+.0f)\n", simulatedSeconds, a.TurboScore, a.TurboScore-a.CruiseScore)
	} else {
		fmt.Fprintf(w, "⚠️  Opening turbo unavailable\n")
	}
}

// Command autopilot plays Neon Drive sessions through the REST API with
// scripted power-up strategies and ranks them by final score.
//
// Each strategy gets a fresh session on the chosen profile. The autopilot
// alternates between asking the strategy for power-ups and advancing the
// session by a batch of headless frames. Sessions are deleted afterwards
// unless --keep is set.
//
// Usage:
//
//	go run ./cmd/autopilot --url http://localhost:8080 --config classic --frames 1800
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/neon-drive/game/engine"
)

// RunResult is the outcome of one strategy run
type RunResult struct {
	Strategy    string
	SessionID   string
	Frames      int
	Score       float64
	Energy      float64
	Activations int
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal("autopilot failed", "err", err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autopilot",
		Usage: "Play sessions with scripted power-up strategies and rank them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Value: "http://localhost:8080",
				Usage: "Game server URL",
			},
			&cli.StringFlag{
				Name:  "config",
				Value: "classic",
				Usage: "Tuning profile ID",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Value: "all",
				Usage: "Strategy to run: cruise, turbo, greedy, bank or all",
			},
			&cli.IntFlag{
				Name:  "frames",
				Value: 1800,
				Usage: "Frames to play per strategy",
			},
			&cli.IntFlag{
				Name:  "batch",
				Value: 10,
				Usage: "Frames per tick request",
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "Keep sessions instead of deleting them",
			},
			&cli.BoolFlag{
				Name:  "v",
				Usage: "Verbose output",
			},
		},
		Action: runAutopilot,
	}
}

func runAutopilot(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("v") {
		log.SetLevel(log.DebugLevel)
	}

	selected := strategies
	if name := cmd.String("strategy"); name != "all" {
		s, err := strategyByName(name)
		if err != nil {
			return err
		}
		selected = []Strategy{s}
	}

	frames, batch := int(cmd.Int("frames")), int(cmd.Int("batch"))
	log.Info("connecting to game server", "url", cmd.String("url"), "config", cmd.String("config"))

	var results []RunResult
	for _, s := range selected {
		client := NewClient(cmd.String("url"))
		result, err := play(client, s, cmd.String("config"), frames, batch)
		if err != nil {
			return fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		results = append(results, *result)

		if !cmd.Bool("keep") {
			if err := client.DeleteSession(); err != nil {
				log.Warn("failed to delete session", "session", result.SessionID, "err", err)
			}
		}
	}

	printResults(os.Stdout, results)
	return nil
}

// play runs strategy s on a new session for frames frames
func play(client *Client, s Strategy, configID string, frames, batch int) (*RunResult, error) {
	if frames < 1 {
		return nil, fmt.Errorf("frames must be positive, got %d", frames)
	}
	if batch < 1 || batch > engine.MaxTickFramesPerCall {
		return nil, fmt.Errorf("batch must be between 1 and %d, got %d", engine.MaxTickFramesPerCall, batch)
	}

	info, err := client.CreateSession(configID)
	if err != nil {
		return nil, err
	}
	log.Info("session created", "strategy", s.Name(), "session", info.ID, "config", info.ConfigName)

	state, config := info.GameState, info.GameConfig
	played := 0
	for played < frames {
		for _, kind := range s.Next(state, config) {
			result, err := client.ActivatePowerUp(kind)
			if err != nil {
				return nil, err
			}
			state = result.GameState
			log.Debug("power-up", "strategy", s.Name(), "kind", kind, "activated", result.Activated, "energy", result.Energy)
		}

		step := batch
		if remaining := frames - played; remaining < step {
			step = remaining
		}
		tick, err := client.Tick(step)
		if err != nil {
			return nil, err
		}
		state = tick.GameState
		played += tick.FramesRun
	}

	return &RunResult{
		Strategy:    s.Name(),
		SessionID:   info.ID,
		Frames:      played,
		Score:       state.Score,
		Energy:      state.Energy,
		Activations: len(state.Effects),
	}, nil
}

// printResults ranks results by score, best first
func printResults(w io.Writer, results []RunResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	fmt.Fprintf(w, "%-4s %-8s %10s %8s %11s  %s\n", "RANK", "STRATEGY", "SCORE", "ENERGY", "ACTIVATIONS", "SESSION")
	for i, r := range results {
		fmt.Fprintf(w, "%-4d %-8s %10.0f %8.1f %11d  %s\n", i+1, r.Strategy, r.Score, r.Energy, r.Activations, r.SessionID)
	}
}

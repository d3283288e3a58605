// Command desktop runs Neon Drive in a native window. It drives the same
// engine and renderer as the server locally, with no network involved.
//
// Controls: ArrowLeft/ArrowRight steer, the profile's power-up keys
// (1/2/3 in classic) activate turbo, flight and rainbow, and a click or tap
// steers to that position.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/neon-drive/game/config"
	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal("desktop client failed", "err", err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "neondrive-desktop",
		Usage: "Play Neon Drive in a native window",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Tuning profile ID (defaults to classic)",
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing tuning profiles",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Car color (hex, rgb() or CSS name)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadProfile(cmd.String("config-dir"), cmd.String("config"))
	if err != nil {
		return err
	}

	color := cmd.String("color")
	if color != "" {
		if _, ok := render.ParseColor(color); !ok {
			log.Warn("unrecognized car color, using fallback", "color", color)
		}
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	log.Info("starting desktop client", "profile", cfg.Name, "fps", cfg.FrameRate)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("Neon Drive - %s", cfg.Name))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.FrameRate)

	return ebiten.RunGame(NewGame(eng, color))
}

// loadProfile reads profile id from dir; an empty id selects the default
func loadProfile(dir, id string) (*engine.GameConfig, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open config directory: %w", err)
	}

	if id == "" {
		if cfg := manager.GetDefault(); cfg != nil {
			return cfg, nil
		}
		return engine.DefaultConfig(), nil
	}

	cfg, err := manager.LoadConfig(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", id, err)
	}
	return cfg, nil
}

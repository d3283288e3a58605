// Command neondrive starts the Neon Drive game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the WebSocket
//     frame stream, the browser client and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config and session directories, debug logging,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/neon-drive/game/config"
	"github.com/wricardo/neon-drive/game/service"
	"github.com/wricardo/neon-drive/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Neon Drive Server"
)

const (
	defaultPort        = 8080
	sessionMaxAge      = 24 * time.Hour
	cleanupInterval    = time.Hour
	syncInterval       = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
	externalProbeLimit = 2 * time.Second
)

// services bundles everything the run modes need
type services struct {
	game        service.GameService
	sessions    *session.Manager
	configs     *config.Manager
	persistence *session.FilePersistence
}

// frameLoopStopper is the part of the frame loop runner the background routines use
type frameLoopStopper interface {
	Stop(sessionID string) bool
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn("error loading .env file", "err", err)
		}
	} else {
		log.Info("loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal("neondrive failed", "err", err)
	}
}

// newApp builds the command line. Flags are shared by every mode.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "neondrive",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Value: "localhost",
				Usage: "HTTP server host",
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   defaultPort,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing tuning profiles",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for persisted sessions",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: setupLogging,
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, browser client and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server against an external or internal HTTP API",
				Action:  runStdioCommand,
			},
		},
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.Kitchen)
	if cmd.Bool("debug") {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	}
	return ctx, nil
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	log.Info("starting", "app", AppName, "version", Version, "mode", "server")

	svcs, err := initializeServices(cmd.String("config-dir"), cmd.String("sessions-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return runHTTPServer(ctx, serverOptions{
		host:        cmd.String("host"),
		port:        int(cmd.Int("port")),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}, svcs)
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	log.Info("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")

	svcs, err := initializeServices(cmd.String("config-dir"), cmd.String("sessions-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	externalURL := fmt.Sprintf("http://localhost:%d", cmd.Int("port"))
	return runStdioMCP(ctx, externalURL, svcs)
}

// initializeServices wires the config and session managers and the game service.
// Background routines are started by startBackgroundRoutines.
func initializeServices(configDir, sessionsDir string) (*services, error) {
	// Config manager first, persistence needs it to rebuild engines
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn("failed to load persisted sessions", "err", err)
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		configs:     configManager,
		persistence: persistence,
	}, nil
}

// startBackgroundRoutines runs session cleanup, filesystem sync and the
// profile watcher until ctx is cancelled
func startBackgroundRoutines(ctx context.Context, svcs *services, loops frameLoopStopper) {
	go sessionCleanupRoutine(ctx, svcs.sessions, loops)
	go filesystemSyncRoutine(ctx, svcs.sessions, svcs.persistence, loops)

	if err := svcs.configs.Watch(ctx); err != nil {
		log.Warn("profile hot reload disabled", "err", err)
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, loops frameLoopStopper) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := expireSessions(manager, loops, sessionMaxAge); removed > 0 {
				log.Info("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// expireSessions drops sessions idle for longer than maxAge from memory
// and stops their frame loops
func expireSessions(manager *session.Manager, loops frameLoopStopper, maxAge time.Duration) int {
	removed := manager.CleanupExpiredSessions(maxAge)
	if loops != nil {
		for _, id := range removed {
			loops.Stop(id)
		}
	}
	return len(removed)
}

// filesystemSyncRoutine periodically drops sessions whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, loops frameLoopStopper) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphanedSessions(manager, persistence, loops); pruned > 0 {
				log.Info("filesystem sync pruned orphaned sessions", "count", pruned)
			}
		}
	}
}

// pruneOrphanedSessions removes in-memory sessions whose file no longer exists
// and stops their frame loops
func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence, loops frameLoopStopper) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if loops != nil {
			loops.Stop(sess.ID)
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Debug("pruned session from memory, file deleted", "session", sess.ID)
		}
	}
	return pruned
}

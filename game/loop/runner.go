package loop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/neon-drive/game/render"
)

// Stepper advances a session by one frame
type Stepper interface {
	Step(ctx context.Context, sessionID string) (*render.Frame, error)
	FrameInterval(ctx context.Context, sessionID string) (time.Duration, error)
}

// Publisher receives every frame a loop produces
type Publisher interface {
	BroadcastFrame(sessionID string, frame *render.Frame)
}

// WatcherCounter is implemented by publishers that know how many clients
// watch a session. Loops of such publishers end once nobody watches.
type WatcherCounter interface {
	ClientCount(sessionID string) int
}

// DefaultIdleTimeout is how long a loop runs without watchers
const DefaultIdleTimeout = 10 * time.Second

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner drives one frame loop goroutine per session
type Runner struct {
	ctx         context.Context
	stepper     Stepper
	publisher   Publisher
	idleTimeout time.Duration

	mu    sync.Mutex
	loops map[string]*handle
}

// NewRunner creates a runner whose loops end when ctx is cancelled.
// publisher may be nil.
func NewRunner(ctx context.Context, stepper Stepper, publisher Publisher) *Runner {
	return &Runner{
		ctx:         ctx,
		stepper:     stepper,
		publisher:   publisher,
		idleTimeout: DefaultIdleTimeout,
		loops:       make(map[string]*handle),
	}
}

// SetIdleTimeout changes how long loops outlive their last watcher.
// Zero keeps loops running. It affects loops started afterwards.
func (r *Runner) SetIdleTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idleTimeout = d
}

// Start launches the frame loop for sessionID. Starting a running loop is a no-op.
func (r *Runner) Start(sessionID string) error {
	key := strings.ToLower(sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, running := r.loops[key]; running {
		return nil
	}
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("runner stopped: %w", err)
	}

	interval, err := r.stepper.FrameInterval(r.ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to start frame loop: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("failed to start frame loop: invalid frame interval %v", interval)
	}

	ctx, cancel := context.WithCancel(r.ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}
	r.loops[key] = h

	go r.run(ctx, sessionID, key, interval, r.idleTimeout, h)

	log.Debug("frame loop started", "session", sessionID, "interval", interval)
	return nil
}

// Stop ends the frame loop for sessionID and waits for it to exit.
// It reports whether a loop was running.
func (r *Runner) Stop(sessionID string) bool {
	key := strings.ToLower(sessionID)

	r.mu.Lock()
	h, running := r.loops[key]
	if running {
		delete(r.loops, key)
	}
	r.mu.Unlock()

	if !running {
		return false
	}

	h.cancel()
	<-h.done
	log.Debug("frame loop stopped", "session", sessionID)
	return true
}

// StopAll ends every loop and waits for them to exit
func (r *Runner) StopAll() {
	r.mu.Lock()
	handles := make([]*handle, 0, len(r.loops))
	for key, h := range r.loops {
		handles = append(handles, h)
		delete(r.loops, key)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
	for _, h := range handles {
		<-h.done
	}

	if len(handles) > 0 {
		log.Info("frame loops stopped", "count", len(handles))
	}
}

// Running reports whether sessionID has a live loop
func (r *Runner) Running(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, running := r.loops[strings.ToLower(sessionID)]
	return running
}

// Count returns the number of live loops
func (r *Runner) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loops)
}

func (r *Runner) run(ctx context.Context, sessionID, key string, interval, idleTimeout time.Duration, h *handle) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	watchers, _ := r.publisher.(WatcherCounter)
	if idleTimeout <= 0 {
		watchers = nil
	}
	// The first watcher may still be connecting when the loop starts
	idleSince := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			frame, err := r.stepper.Step(ctx, sessionID)
			if err != nil {
				// The session is gone
				log.Info("frame loop ended", "session", sessionID, "err", err)
				r.release(key, h)
				return
			}
			if r.publisher != nil {
				r.publisher.BroadcastFrame(sessionID, frame)
			}

			if watchers == nil {
				continue
			}
			if watchers.ClientCount(sessionID) > 0 {
				idleSince = time.Time{}
			} else if idleSince.IsZero() {
				idleSince = time.Now()
			} else if time.Since(idleSince) >= idleTimeout {
				log.Info("frame loop ended, no watchers", "session", sessionID, "idle", idleTimeout)
				r.release(key, h)
				return
			}
		}
	}
}

// release drops h from the loop table unless Stop already did
func (r *Runner) release(key string, h *handle) {
	r.mu.Lock()
	if r.loops[key] == h {
		delete(r.loops, key)
	}
	r.mu.Unlock()
	h.cancel()
}

package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/neon-drive/game/render"
)

// MockStepper implements Stepper for testing
type MockStepper struct {
	StepFunc          func(ctx context.Context, sessionID string) (*render.Frame, error)
	FrameIntervalFunc func(ctx context.Context, sessionID string) (time.Duration, error)

	mu    sync.Mutex
	steps map[string]int
}

func (m *MockStepper) Step(ctx context.Context, sessionID string) (*render.Frame, error) {
	m.mu.Lock()
	if m.steps == nil {
		m.steps = make(map[string]int)
	}
	m.steps[sessionID]++
	n := m.steps[sessionID]
	m.mu.Unlock()

	if m.StepFunc != nil {
		return m.StepFunc(ctx, sessionID)
	}
	return &render.Frame{Tick: int64(n)}, nil
}

func (m *MockStepper) FrameInterval(ctx context.Context, sessionID string) (time.Duration, error) {
	if m.FrameIntervalFunc != nil {
		return m.FrameIntervalFunc(ctx, sessionID)
	}
	return time.Millisecond, nil
}

func (m *MockStepper) Steps(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps[sessionID]
}

// MockPublisher records published frames
type MockPublisher struct {
	mu     sync.Mutex
	frames map[string][]*render.Frame
}

func (p *MockPublisher) BroadcastFrame(sessionID string, frame *render.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames == nil {
		p.frames = make(map[string][]*render.Frame)
	}
	p.frames[sessionID] = append(p.frames[sessionID], frame)
}

func (p *MockPublisher) Count(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames[sessionID])
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunner_StartPublishesFrames(t *testing.T) {
	stepper := &MockStepper{}
	publisher := &MockPublisher{}
	runner := NewRunner(context.Background(), stepper, publisher)
	defer runner.StopAll()

	if err := runner.Start("abcd"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !runner.Running("abcd") {
		t.Error("Expected loop to be running")
	}
	if !runner.Running("ABCD") {
		t.Error("Expected case-insensitive lookup")
	}

	waitFor(t, "frames", func() bool { return publisher.Count("abcd") >= 3 })
}

func TestRunner_StartIsIdempotent(t *testing.T) {
	stepper := &MockStepper{}
	runner := NewRunner(context.Background(), stepper, nil)
	defer runner.StopAll()

	for i := 0; i < 3; i++ {
		if err := runner.Start("abcd"); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
	}
	if runner.Count() != 1 {
		t.Errorf("Expected 1 loop, got %d", runner.Count())
	}
}

func TestRunner_Stop(t *testing.T) {
	stepper := &MockStepper{}
	runner := NewRunner(context.Background(), stepper, nil)

	runner.Start("abcd")
	waitFor(t, "first step", func() bool { return stepper.Steps("abcd") > 0 })

	if !runner.Stop("abcd") {
		t.Error("Expected Stop to report a running loop")
	}
	if runner.Running("abcd") {
		t.Error("Expected loop to be stopped")
	}

	steps := stepper.Steps("abcd")
	time.Sleep(20 * time.Millisecond)
	if stepper.Steps("abcd") != steps {
		t.Error("Expected no steps after Stop returned")
	}

	if runner.Stop("abcd") {
		t.Error("Expected second Stop to report no loop")
	}
}

func TestRunner_EndsWhenSessionDisappears(t *testing.T) {
	stepper := &MockStepper{
		StepFunc: func(ctx context.Context, sessionID string) (*render.Frame, error) {
			return nil, errors.New("session not found")
		},
	}
	publisher := &MockPublisher{}
	runner := NewRunner(context.Background(), stepper, publisher)

	runner.Start("gone")
	waitFor(t, "loop exit", func() bool { return !runner.Running("gone") })

	if publisher.Count("gone") != 0 {
		t.Error("Expected no frames from a failed step")
	}

	// A fresh start is allowed after the loop ended
	stepper.StepFunc = nil
	if err := runner.Start("gone"); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	runner.StopAll()
}

func TestRunner_StartErrors(t *testing.T) {
	tests := []struct {
		name     string
		interval func(ctx context.Context, sessionID string) (time.Duration, error)
	}{
		{"unknown session", func(ctx context.Context, sessionID string) (time.Duration, error) {
			return 0, errors.New("session not found")
		}},
		{"zero interval", func(ctx context.Context, sessionID string) (time.Duration, error) {
			return 0, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(context.Background(), &MockStepper{FrameIntervalFunc: tt.interval}, nil)
			if err := runner.Start("abcd"); err == nil {
				t.Error("Expected error")
			}
			if runner.Running("abcd") {
				t.Error("Expected no loop after failed start")
			}
		})
	}
}

func TestRunner_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stepper := &MockStepper{}
	runner := NewRunner(ctx, stepper, nil)

	runner.Start("a")
	runner.Start("b")
	waitFor(t, "both loops stepping", func() bool {
		return stepper.Steps("a") > 0 && stepper.Steps("b") > 0
	})

	cancel()

	if err := runner.Start("c"); err == nil {
		t.Error("Expected Start to fail after cancellation")
	}

	// StopAll still waits for loops that exited on their own
	runner.StopAll()
	if runner.Count() != 0 {
		t.Errorf("Expected no loops, got %d", runner.Count())
	}
}

func TestRunner_StopAll(t *testing.T) {
	stepper := &MockStepper{}
	runner := NewRunner(context.Background(), stepper, nil)

	for _, id := range []string{"a", "b", "c"} {
		runner.Start(id)
	}
	if runner.Count() != 3 {
		t.Fatalf("Expected 3 loops, got %d", runner.Count())
	}

	runner.StopAll()
	if runner.Count() != 0 {
		t.Errorf("Expected 0 loops, got %d", runner.Count())
	}
}

// watchedPublisher reports a settable number of watchers per session
type watchedPublisher struct {
	MockPublisher
	mu       sync.Mutex
	watchers map[string]int
}

func (p *watchedPublisher) SetWatchers(sessionID string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watchers == nil {
		p.watchers = make(map[string]int)
	}
	p.watchers[sessionID] = n
}

func (p *watchedPublisher) ClientCount(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watchers[sessionID]
}

func TestRunner_EndsWithoutWatchers(t *testing.T) {
	stepper := &MockStepper{}
	publisher := &watchedPublisher{}
	publisher.SetWatchers("watched", 1)

	runner := NewRunner(context.Background(), stepper, publisher)
	runner.SetIdleTimeout(20 * time.Millisecond)
	defer runner.StopAll()

	runner.Start("watched")
	runner.Start("idle")

	waitFor(t, "idle loop exit", func() bool { return !runner.Running("idle") })
	if !runner.Running("watched") {
		t.Fatal("Expected the watched loop to keep running")
	}

	// Losing the last watcher ends the loop after the timeout
	publisher.SetWatchers("watched", 0)
	waitFor(t, "watched loop exit", func() bool { return !runner.Running("watched") })
}

func TestRunner_ZeroIdleTimeoutKeepsLoops(t *testing.T) {
	stepper := &MockStepper{}
	runner := NewRunner(context.Background(), stepper, &watchedPublisher{})
	runner.SetIdleTimeout(0)
	defer runner.StopAll()

	runner.Start("a")
	waitFor(t, "frames", func() bool { return stepper.Steps("a") >= 20 })
	if !runner.Running("a") {
		t.Error("Expected the loop to ignore watchers with a zero idle timeout")
	}
}

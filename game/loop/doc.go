// Package loop drives the live frame loop of each session.
//
// A Runner owns one goroutine per session. Each goroutine ticks at the
// session profile's frame rate, calls Stepper.Step (update then render under
// the session lock) and hands the frame to the Publisher, usually the
// WebSocket hub. A loop ends when the runner's context is cancelled, when
// Stop is called, or when Step fails because the session is no longer in
// memory. If the publisher counts watchers, a loop also ends after running
// unwatched for the idle timeout.
package loop

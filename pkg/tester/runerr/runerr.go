// Package runerr defines the small, closed set of error kinds the harness
// distinguishes. Most are surfaced verbatim to the caller as Outcome.Err,
// but Disconnected, TimedOut and CannotPost get special treatment: the
// checks package's errOutcome helper classifies them into Outcome.Fail,
// since a relay that drops the connection, never ACKs, or rejects a
// prerequisite event has failed the test rather than left it untested.
package runerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Use errors.Is against these, not type assertions: wrapped
// transport/json errors carry one of these via %w.
var (
	// ErrDisconnected is returned when the connection observed a remote
	// close or EOF. The caller's next send will transparently reconnect.
	ErrDisconnected = errors.New("disconnected")

	// ErrTimedOut is returned specifically when post_event could not
	// obtain a terminal acknowledgment within its timeout.
	ErrTimedOut = errors.New("timed out waiting for ack")

	// ErrPrerequisiteEventSubmissionFailed is returned by tests that
	// depend on Event Group A when its injection previously failed.
	ErrPrerequisiteEventSubmissionFailed = errors.New("prerequisite event submission failed")

	// ErrCannotPost is returned when a should-always-succeed setup
	// submission was rejected by the relay.
	ErrCannotPost = errors.New("event rejected by relay during setup")
)

// Websocket wraps a transport-layer error.
func Websocket(err error) error { return fmt.Errorf("websocket: %w", err) }

// Http wraps an HTTP-layer error (NIP-11 fetch).
func Http(err error) error { return fmt.Errorf("http: %w", err) }

// Json wraps a JSON marshal/unmarshal error.
func Json(err error) error { return fmt.Errorf("json: %w", err) }

// NostrTypes wraps an error from the event/filter/signing library.
func NostrTypes(err error) error { return fmt.Errorf("nostr types: %w", err) }

package checks

import (
	"time"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/connection"
	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// PromptsForAuthInitially reconnects and, within 2 seconds, expects the
// connection's auth state to have left NotYetRequested.
func PromptsForAuthInitially(ctx context.T, rc *runctx.Context) outcome.Outcome {
	rc.Conn.Disconnect()
	if err := rc.Conn.Reconnect(ctx); err != nil {
		return errOutcome(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !rc.Conn.AuthState().IsNotYetRequested() {
			return outcome.Pass("")
		}
		if _, err := rc.Conn.WaitForMessage(ctx, time.Until(deadline)); err != nil {
			return outcome.Fail(err.Error())
		}
	}
	return outcome.Fail("no AUTH challenge seen within 2s of connecting")
}

// CanAuthAsUnknown: as a fresh Stranger, post something to trigger a
// challenge, then authenticate; expect Success.
func CanAuthAsUnknown(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if err := rc.Conn.Reconnect(ctx); err != nil {
		return errOutcome(err)
	}
	ev := nostr.Event{Kind: 1, Content: "trigger auth challenge"}
	_, _, _ = rc.Conn.PostEvent(ctx, &ev, rc.Timeouts.Suite)
	if err := rc.Conn.AuthenticateIfChallenged(ctx, rc.Signers.Stranger); err != nil {
		return errOutcome(err)
	}
	switch rc.Conn.AuthState().Kind {
	case connection.Success:
		return outcome.Pass("")
	case connection.Failure:
		return outcome.Fail(rc.Conn.AuthState().Reason)
	default:
		return outcome.Fail("auth did not complete")
	}
}

// wrongAuth builds a deliberately-wrong AUTH event, letting mutate change
// one field, sends it, and expects the relay to reject it (spec
// §4.2 "several tests deliberately supply wrong values to verify this").
// This reconstructs the intent of original_source's legacy
// kind_verified/relay_verified/challenge_verified/time_verified tests
// against the canonical single-auth-path Connection API.
func wrongAuth(ctx context.T, rc *runctx.Context, mutate func(ev *nostr.Event, challenge string)) outcome.Outcome {
	if err := rc.Conn.Reconnect(ctx); err != nil {
		return errOutcome(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !rc.Conn.AuthState().IsChallenged() {
		if _, err := rc.Conn.WaitForMessage(ctx, time.Until(deadline)); err != nil {
			return errOutcome(err)
		}
	}
	state := rc.Conn.AuthState()
	if !state.IsChallenged() {
		return outcome.Err("no AUTH challenge received")
	}

	ev := nostr.Event{
		Kind: nostr.KindClientAuthentication,
		Tags: nostr.Tags{
			nostr.Tag{"relay", rc.RelayURL},
			nostr.Tag{"challenge", state.Challenge},
		},
		Content: "",
	}
	mutate(&ev, state.Challenge)

	id, err := rc.Conn.SendDeliberateAuth(ctx, rc.Signers.Registered1, ev)
	if err != nil {
		return errOutcome(err)
	}
	_ = id

	wdeadline := time.Now().Add(rc.Timeouts.Suite)
	for time.Now().Before(wdeadline) {
		if rc.Conn.AuthState().Kind == connection.Failure {
			return outcome.Pass(rc.Conn.AuthState().Reason)
		}
		if rc.Conn.AuthState().Kind == connection.Success {
			return outcome.Fail("relay accepted an invalid AUTH event")
		}
		if _, err := rc.Conn.WaitForMessage(ctx, time.Until(wdeadline)); err != nil {
			return errOutcome(err)
		}
	}
	return outcome.Fail("relay neither accepted nor rejected the invalid AUTH event")
}

// RejectsWrongRelayTag supplies a relay tag that doesn't match the
// connected URL.
func RejectsWrongRelayTag(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return wrongAuth(ctx, rc, func(ev *nostr.Event, challenge string) {
		ev.Tags = nostr.Tags{
			nostr.Tag{"relay", "wss://wrong.example.invalid"},
			nostr.Tag{"challenge", challenge},
		}
	})
}

// RejectsStaleChallenge supplies a made-up challenge instead of the one
// that was actually issued.
func RejectsStaleChallenge(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return wrongAuth(ctx, rc, func(ev *nostr.Event, challenge string) {
		ev.Tags = nostr.Tags{
			nostr.Tag{"relay", rc.RelayURL},
			nostr.Tag{"challenge", challenge + "-stale"},
		}
	})
}

// RejectsWrongKind supplies the wrong event kind for the AUTH event.
func RejectsWrongKind(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return wrongAuth(ctx, rc, func(ev *nostr.Event, challenge string) {
		ev.Kind = nostr.KindTextNote
	})
}

// RejectsStaleCreatedAt signs the AUTH event with a created_at far in the
// past.
func RejectsStaleCreatedAt(ctx context.T, rc *runctx.Context) outcome.Outcome {
	return wrongAuth(ctx, rc, func(ev *nostr.Event, challenge string) {
		ev.CreatedAt = nostr.Timestamp(time.Now().Add(-48 * time.Hour).Unix())
	})
}

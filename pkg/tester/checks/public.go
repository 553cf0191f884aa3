package checks

import (
	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// postAsStranger signs ev with the Stranger identity (unauthenticated or
// freshly authenticated-as-unknown) and posts it on the shared connection.
func postAsStranger(ctx context.T, rc *runctx.Context, ev *nostr.Event) (bool, string, error) {
	if err := rc.Signers.Stranger.Sign(ev); err != nil {
		return false, "", err
	}
	return rc.Conn.PostEvent(ctx, ev, rc.Timeouts.Suite)
}

// PublicCanWrite posts a plain text note as the Stranger identity and
// expects it to be accepted without requiring registration.
func PublicCanWrite(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: 1, Content: "public write probe"}
	ok, reason, err := postAsStranger(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a public text note: " + reason)
	}
	return outcome.Pass("")
}

// AcceptsRelayListsFromPublic posts a kind-10002 (NIP-65 relay list) event
// as the Stranger identity.
func AcceptsRelayListsFromPublic(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{
		Kind: 10002,
		Tags: nostr.Tags{nostr.Tag{"r", "wss://example.invalid/relay"}},
	}
	ok, reason, err := postAsStranger(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a public relay list event: " + reason)
	}
	return outcome.Pass("")
}

// AcceptsDmRelayListsFromPublic posts a kind-10050 (NIP-17 DM relay list)
// event as the Stranger identity.
func AcceptsDmRelayListsFromPublic(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{
		Kind: 10050,
		Tags: nostr.Tags{nostr.Tag{"relay", "wss://example.invalid/dm-relay"}},
	}
	ok, reason, err := postAsStranger(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a public DM relay list event: " + reason)
	}
	return outcome.Pass("")
}

// AcceptsEphemeralEventsFromPublic posts a kind-23195 (NWC wallet
// response, an ephemeral range kind) event as the Stranger identity.
func AcceptsEphemeralEventsFromPublic(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: 23195, Content: "public ephemeral probe"}
	ok, reason, err := postAsStranger(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a public ephemeral event: " + reason)
	}
	return outcome.Pass("")
}

package checks

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// SupportsEose posts a limited filter and expects an EOSE envelope before
// the fixture's events are exhausted.
func SupportsEose(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if _, err := rc.MaybeSubmitEventGroupA(ctx); err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{Kinds: []int{1}, Limit: 2}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	if res.PostEOSEEvents == nil {
		return outcome.Fail("no EOSE received within timeout")
	}
	return outcome.Pass("")
}

// ClosesCompleteSubscriptionsAfterEose opens a bounded (limited) filter and
// expects the relay to send an explicit CLOSED once the limit is satisfied:
// close_msg must be present.
func ClosesCompleteSubscriptionsAfterEose(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if _, err := rc.MaybeSubmitEventGroupA(ctx); err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{Kinds: []int{1}, Limit: 1}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	if res.PostEOSEEvents == nil {
		return outcome.Fail("no EOSE received")
	}
	if len(*res.PostEOSEEvents) > 0 {
		return outcome.Fail(fmt.Sprintf("relay kept sending %d events on a complete subscription after EOSE", len(*res.PostEOSEEvents)))
	}
	if res.CloseMsg == nil {
		return outcome.Fail("relay did not send a CLOSED for a subscription already satisfied by its limit")
	}
	return outcome.Pass("")
}

// KeepsOpenIncompleteSubscriptionsAfterEose opens an unbounded filter,
// waits for EOSE, then submits one more matching event and expects it to
// arrive on the still-open subscription.
func KeepsOpenIncompleteSubscriptionsAfterEose(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{Kinds: []int{1}, Tags: tagMapLiteral("t", "eose-probe")}
	res, err := rc.Conn.FetchEventsKeepOpen(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	if res.PostEOSEEvents == nil {
		return outcome.Fail("no EOSE received")
	}
	if res.CloseMsg != nil {
		return outcome.Fail("relay closed an unbounded subscription after EOSE: " + *res.CloseMsg)
	}
	if res.SubID == nil {
		return outcome.Fail("subscription was not left open")
	}

	ev := nostr.Event{
		Kind:      1,
		Tags:      nostr.Tags{nostr.Tag{"t", "eose-probe"}},
		Content:   "posted after EOSE on an open subscription",
		CreatedAt: nostr.Now(),
	}
	if err := requirePosted("prerequisite event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &ev)
	}); err != nil {
		return errOutcome(err)
	}
	_ = group

	got, err := rc.Conn.CollectEvents(ctx, *res.SubID, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	for _, e := range got {
		if e.ID == ev.ID {
			_ = rc.Conn.CloseSubscription(ctx, *res.SubID)
			return outcome.Pass("")
		}
	}
	_ = rc.Conn.CloseSubscription(ctx, *res.SubID)
	return outcome.Fail("event posted after EOSE never arrived on the open subscription")
}

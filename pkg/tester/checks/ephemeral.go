package checks

import (
	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/connection"
	"relaytester.dev/pkg/tester/eventgroup"
	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// PersistsEphemeralEvents checks, via the Event Group A fixture, that an
// ephemeral-kind event is NOT returned by a later query: ephemeral events
// are delivered live to open subscriptions but never stored.
func PersistsEphemeralEvents(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	entry, ok := group.Get("ephemeral")
	if !ok {
		return outcome.Err("fixture event missing: ephemeral")
	}
	filter := nostr.Filter{IDs: []string{entry.Event.ID}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 0 {
		return outcome.Fail("ephemeral fixture event was returned by a later query")
	}
	return outcome.Pass("")
}

// EphemeralSubscriptionsWork opens a second, independent connection (spec
// §9 "two concurrent connections"), leaves it deliberately unauthenticated,
// subscribes to an ephemeral kind, then posts a matching ephemeral event on
// the primary connection and expects it to arrive live on the second.
func EphemeralSubscriptionsWork(ctx context.T, rc *runctx.Context) outcome.Outcome {
	second, err := connection.New(ctx, rc.RelayURL)
	if err != nil {
		return errOutcome(err)
	}
	defer second.Disconnect()

	filter := nostr.Filter{Kinds: []int{eventgroup.KindEphemeral}, Tags: tagMapLiteral("t", "ephemeral-live-probe")}
	res, err := second.FetchEventsKeepOpen(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	if res.SubID == nil {
		return outcome.Fail("second connection's subscription was not left open")
	}

	ev := nostr.Event{
		Kind:      eventgroup.KindEphemeral,
		Tags:      nostr.Tags{nostr.Tag{"t", "ephemeral-live-probe"}},
		Content:   "ephemeral subscription liveness probe",
		CreatedAt: nostr.Now(),
	}
	if err := requirePosted("prerequisite ephemeral event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &ev)
	}); err != nil {
		return errOutcome(err)
	}

	got, err := second.CollectEvents(ctx, *res.SubID, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	for _, e := range got {
		if e.ID == ev.ID {
			return outcome.Pass("")
		}
	}
	return outcome.Fail("ephemeral event never arrived on the second connection's open subscription")
}

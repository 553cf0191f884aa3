package checks

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/eventgroup"
	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// AcceptsMetadata posts a fresh kind-0 event and expects an OK.
func AcceptsMetadata(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: eventgroup.KindMetadata, Content: `{"name":"accepts_metadata_probe"}`}
	ok, reason, err := postTypedAsRegistered1(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a kind-0 metadata event: " + reason)
	}
	return outcome.Pass("")
}

// ReplacesMetadata posts two kind-0 events for the same author and checks
// that only the newer one is returned.
func ReplacesMetadata(ctx context.T, rc *runctx.Context) outcome.Outcome {
	first := nostr.Event{Kind: eventgroup.KindMetadata, Content: `{"name":"replaces_metadata_v1"}`}
	if err := requirePosted("first metadata event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &first)
	}); err != nil {
		return errOutcome(err)
	}

	second := nostr.Event{Kind: eventgroup.KindMetadata, CreatedAt: first.CreatedAt + 1, Content: `{"name":"replaces_metadata_v2"}`}
	if err := requirePosted("second metadata event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &second)
	}); err != nil {
		return errOutcome(err)
	}

	filter := nostr.Filter{Authors: []string{second.PubKey}, Kinds: []int{eventgroup.KindMetadata}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 1 {
		return outcome.Fail(fmt.Sprintf("expected exactly 1 metadata event after replacement, got %d", len(got)))
	}
	if got[0].ID != second.ID {
		return outcome.Fail("relay returned the older metadata event instead of the replacement")
	}
	return outcome.Pass("")
}

// AcceptsContactList posts a fresh kind-3 event and expects an OK.
func AcceptsContactList(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: eventgroup.KindContactList, Content: "[]"}
	ok, reason, err := postTypedAsRegistered1(ctx, rc, &ev)
	if err != nil {
		return errOutcome(err)
	}
	if !ok {
		return outcome.Fail("relay rejected a kind-3 contact list event: " + reason)
	}
	return outcome.Pass("")
}

// ReplacesContactList is ReplacesMetadata's kind-3 equivalent.
func ReplacesContactList(ctx context.T, rc *runctx.Context) outcome.Outcome {
	first := nostr.Event{Kind: eventgroup.KindContactList, Content: "replaces_contact_list_v1"}
	if err := requirePosted("first contact list event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &first)
	}); err != nil {
		return errOutcome(err)
	}

	second := nostr.Event{Kind: eventgroup.KindContactList, CreatedAt: first.CreatedAt + 1, Content: "replaces_contact_list_v2"}
	if err := requirePosted("second contact list event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &second)
	}); err != nil {
		return errOutcome(err)
	}

	filter := nostr.Filter{Authors: []string{second.PubKey}, Kinds: []int{eventgroup.KindContactList}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 1 {
		return outcome.Fail(fmt.Sprintf("expected exactly 1 contact list event after replacement, got %d", len(got)))
	}
	if got[0].ID != second.ID {
		return outcome.Fail("relay returned the older contact list event instead of the replacement")
	}
	return outcome.Pass("")
}

// ReplacedEventsStillAvailableById checks that a replaced (superseded)
// kind-0 event can still be fetched directly by id, per spec: replacement
// removes it from default queries, not from storage.
func ReplacedEventsStillAvailableById(ctx context.T, rc *runctx.Context) outcome.Outcome {
	first := nostr.Event{Kind: eventgroup.KindMetadata, Content: `{"name":"still_available_v1"}`}
	if err := requirePosted("first metadata event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &first)
	}); err != nil {
		return errOutcome(err)
	}
	second := nostr.Event{Kind: eventgroup.KindMetadata, CreatedAt: first.CreatedAt + 1, Content: `{"name":"still_available_v2"}`}
	if err := requirePosted("second metadata event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &second)
	}); err != nil {
		return errOutcome(err)
	}

	filter := nostr.Filter{IDs: []string{first.ID}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	for _, e := range got {
		if e.ID == first.ID {
			return outcome.Pass("")
		}
	}
	return outcome.Fail("superseded event could no longer be fetched by id")
}

// ReplaceableEventRemovesPrevious checks via the Event Group A fixture
// that an older replaceable (kind-0) event is absent from a default query.
func ReplaceableEventRemovesPrevious(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	older, ok := group.Get("metadata_older")
	if !ok {
		return outcome.Err("fixture event missing: metadata_older")
	}
	filter := nostr.Filter{Authors: []string{older.Event.PubKey}, Kinds: []int{eventgroup.KindMetadata}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	for _, e := range got {
		if e.ID == older.Event.ID {
			return outcome.Fail("older replaceable event was returned by an author+kind query after being superseded")
		}
	}
	return outcome.Pass("")
}

// ReplaceableEventDoesntRemoveFuture checks that the newer replaceable
// fixture event remains readable.
func ReplaceableEventDoesntRemoveFuture(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	newer, ok := group.Get("metadata_newer")
	if !ok {
		return outcome.Err("fixture event missing: metadata_newer")
	}
	filter := nostr.Filter{IDs: []string{newer.Event.ID}}
	return find(ctx, rc, filter, intp(1))
}

// AddressableEventRemovesPrevious checks the d-tagged (parameterized
// replaceable) fixture: the older addressable event must be gone.
func AddressableEventRemovesPrevious(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	older, ok := group.Get("older_param_replaceable")
	if !ok {
		return outcome.Err("fixture event missing: older_param_replaceable")
	}
	filter := nostr.Filter{IDs: []string{older.Event.ID}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 0 {
		return outcome.Fail("older addressable event was returned even by id after being superseded")
	}
	return outcome.Pass("")
}

// AddressableEventDoesntRemoveFuture checks that the newer d-tagged
// fixture event remains readable.
func AddressableEventDoesntRemoveFuture(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	newer, ok := group.Get("newer_param_replaceable")
	if !ok {
		return outcome.Err("fixture event missing: newer_param_replaceable")
	}
	filter := nostr.Filter{IDs: []string{newer.Event.ID}}
	return find(ctx, rc, filter, intp(1))
}

// FindReplaceableEvent queries the plain-replaceable kind (metadata)
// without an id, via author+kind, and expects exactly the newer event.
func FindReplaceableEvent(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	newer, ok := group.Get("metadata_newer")
	if !ok {
		return outcome.Err("fixture event missing: metadata_newer")
	}
	filter := nostr.Filter{Authors: []string{newer.Event.PubKey}, Kinds: []int{eventgroup.KindMetadata}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 1 || got[0].ID != newer.Event.ID {
		return outcome.Fail(fmt.Sprintf("expected exactly the newer metadata event, got %d events", len(got)))
	}
	return outcome.Pass("")
}

// FindAddressableEvent queries the d-tagged addressable kind by
// author+kind+d, expecting exactly the newer event.
func FindAddressableEvent(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	newer, ok := group.Get("newer_param_replaceable")
	if !ok {
		return outcome.Err("fixture event missing: newer_param_replaceable")
	}
	filter := nostr.Filter{
		Authors: []string{newer.Event.PubKey},
		Kinds:   []int{eventgroup.KindFollowSet},
		Tags:    tagMapLiteral("d", "1"),
	}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 1 || got[0].ID != newer.Event.ID {
		return outcome.Fail(fmt.Sprintf("expected exactly the newer addressable event, got %d events", len(got)))
	}
	return outcome.Pass("")
}

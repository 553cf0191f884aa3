package checks

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/eventgroup"
	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// FindByID filters on a single fixture event's id.
func FindByID(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	entry, ok := group.Get("limit_test_first")
	if !ok {
		return outcome.Err("fixture event missing: limit_test_first")
	}
	filter := nostr.Filter{IDs: []string{entry.Event.ID}}
	return find(ctx, rc, filter, intp(1))
}

// FindByPubkeyAndKind filters on the fixture author's pubkey plus kind 1.
func FindByPubkeyAndKind(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	entry, ok := group.Get("limit_test_first")
	if !ok {
		return outcome.Err("fixture event missing: limit_test_first")
	}
	filter := nostr.Filter{Authors: []string{entry.Event.PubKey}, Kinds: []int{1}}
	return find(ctx, rc, filter, intp(4))
}

// FindByPubkeyAndTags filters on pubkey plus a single tag value.
func FindByPubkeyAndTags(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	entry, ok := group.Get("limit_test_first")
	if !ok {
		return outcome.Err("fixture event missing: limit_test_first")
	}
	filter := nostr.Filter{Authors: []string{entry.Event.PubKey}, Tags: tagMapLiteral("t", "a")}
	return find(ctx, rc, filter, intp(2))
}

// FindByKindAndTags filters on the multi-tag fixture's arbitrary kind plus
// the "k" tag, which only one of the two multipletags fixtures carries.
func FindByKindAndTags(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if _, err := rc.MaybeSubmitEventGroupA(ctx); err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{Kinds: []int{eventgroup.KindMultiTag}, Tags: tagMapLiteral("k", "3036")}
	return find(ctx, rc, filter, intp(1))
}

// FindByTags filters purely on the "n" tag, which both multipletags
// fixtures carry.
func FindByTags(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if _, err := rc.MaybeSubmitEventGroupA(ctx); err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{Tags: tagMapLiteral("n", "approved")}
	return find(ctx, rc, filter, intp(2))
}

// FindByMultipleTags filters on two distinct tag keys at once, which only
// the multipletags fixture (not its shouldntmatch sibling) satisfies
// jointly.
func FindByMultipleTags(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if _, err := rc.MaybeSubmitEventGroupA(ctx); err != nil {
		return errOutcome(err)
	}
	m := nostr.TagMap{}
	m = m.SetLiterals("k", "3036")
	m = m.SetLiterals("n", "approved")
	filter := nostr.Filter{Tags: m}
	return find(ctx, rc, filter, intp(1))
}

// FindByPubkey filters solely on the fixture author's pubkey, expecting
// every fixture event that's still readable.
func FindByPubkey(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	entry, ok := group.Get("limit_test_first")
	if !ok {
		return outcome.Err("fixture event missing: limit_test_first")
	}
	filter := nostr.Filter{Authors: []string{entry.Event.PubKey}}
	return find(ctx, rc, filter, nil)
}

// FindByScrape is an unfiltered (kind-only) query broad enough to require
// paging through more than a single small limit.
func FindByScrape(ctx context.T, rc *runctx.Context) outcome.Outcome {
	if _, err := rc.MaybeSubmitEventGroupA(ctx); err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{Kinds: []int{1}}
	return find(ctx, rc, filter, nil)
}

// NewestToOldest checks that a limited kind-1 query returns the two
// newest matching fixture events (by created_at), not an arbitrary two.
func NewestToOldest(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{
		Authors: []string{rc.Signers.Registered1.PublicKeyHex},
		Kinds:   []int{1, 7},
		Tags:    tagMapLiteral("t", "a", "b"),
		Limit:   2,
	}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 2 {
		return outcome.Fail(fmt.Sprintf("expected exactly 2 events, got %d", len(got)))
	}
	first, _ := group.Get("limit_test_first")
	second, _ := group.Get("limit_test_second")
	if got[0].ID != first.Event.ID || got[1].ID != second.Event.ID {
		return outcome.Fail("relay did not return the two newest matching events in newest-first order")
	}
	return outcome.Pass("")
}

// NewestEventsWhenLimited is NewestToOldest's companion named in spec §8:
// a limit of 1 must return exactly limit_test_first, the single newest
// fixture event among the four limit_test_* notes.
func NewestEventsWhenLimited(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	filter := nostr.Filter{
		Authors: []string{rc.Signers.Registered1.PublicKeyHex},
		Kinds:   []int{1, 7},
		Tags:    tagMapLiteral("t", "a", "b"),
		Limit:   1,
	}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	if len(got) != 1 {
		return outcome.Fail(fmt.Sprintf("expected exactly 1 event, got %d", len(got)))
	}
	first, _ := group.Get("limit_test_first")
	if got[0].ID != first.Event.ID {
		return outcome.Fail("limit=1 did not return the single newest fixture event")
	}
	return outcome.Pass("")
}

// Order checks that a broader, unlimited query is still newest-first
// across more than two events (equal created_at values may appear in
// either order).
func Order(ctx context.T, rc *runctx.Context) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}
	entry, ok := group.Get("limit_test_first")
	if !ok {
		return outcome.Err("fixture event missing: limit_test_first")
	}
	filter := nostr.Filter{Authors: []string{entry.Event.PubKey}, Kinds: []int{1}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt > got[i-1].CreatedAt {
			return outcome.Fail("events were not returned in newest-first order")
		}
	}
	return outcome.Pass("")
}

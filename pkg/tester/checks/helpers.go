// Package checks holds one file per test category from spec §4.5, each
// grounded on the matching original_source/src/tests/*.rs file. Every
// exported check function has the signature testitem.Runner expects:
// func(context.T, *runctx.Context) outcome.Outcome.
package checks

import (
	"errors"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/tester/runerr"
	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/utils/context"
)

// errOutcome classifies a transport/setup error the way a failed test case
// should be reported: a disconnect, a post_event ack timeout, or a rejected
// prerequisite event all mean the property under test could not even be
// exercised, which is a failure of the relay, not an untested result.
// Everything else (dial errors, malformed responses) stays untested.
func errOutcome(err error) outcome.Outcome {
	if errors.Is(err, runerr.ErrDisconnected) || errors.Is(err, runerr.ErrTimedOut) || errors.Is(err, runerr.ErrCannotPost) {
		return outcome.Fail(err.Error())
	}
	return outcome.Err(err.Error())
}

// requirePosted runs a prerequisite post and turns relay rejection into
// runerr.ErrCannotPost, so a failed setup step is distinguishable from the
// property the test actually checks.
func requirePosted(label string, post func() (bool, string, error)) error {
	ok, reason, err := post()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w: %s", label, runerr.ErrCannotPost, reason)
	}
	return nil
}

// find implements the generic property from spec §4.6: fetch with filter,
// then check (1) every returned event matches the filter, (2) every
// expected-readable fixture event matching the filter is present, and (3)
// optionally that the match count equals want.
func find(ctx context.T, rc *runctx.Context, filter nostr.Filter, want *int) outcome.Outcome {
	group, err := rc.MaybeSubmitEventGroupA(ctx)
	if err != nil {
		return errOutcome(err)
	}

	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}
	all := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		all = append(all, (*res.PostEOSEEvents)...)
	}

	for _, e := range all {
		if !filter.Matches(e) {
			return outcome.Fail(fmt.Sprintf("relay returned non-matching event %s", e.ID))
		}
	}

	present := map[string]bool{}
	for _, e := range all {
		present[e.ID] = true
	}

	matched := 0
	for _, entry := range group.Iter() {
		if !entry.ExpectReadable {
			continue
		}
		if !filter.Matches(&entry.Event) {
			continue
		}
		matched++
		if !present[entry.Event.ID] {
			return outcome.Fail(fmt.Sprintf("expected event is missing: %s", entry.Name))
		}
	}

	if want != nil && matched != *want {
		return outcome.Fail(fmt.Sprintf("matched %d fixture events but expected %d", matched, *want))
	}
	return outcome.Pass("")
}

func intp(i int) *int { return &i }

// tagMapLiteral builds a TagMap filter term for one tag letter with one or
// more values, e.g. for #t:["a"] or #t:["a","b"].
func tagMapLiteral(tag string, values ...string) nostr.TagMap {
	m := nostr.TagMap{}
	return m.SetLiterals(tag, values...)
}

// postRawRegistered1 builds and sends a raw (non-typed) event as
// Registered1, computing id/sig independently of the typed library (spec
// §9 "mixing typed and raw event submission"). createdAtLiteral is
// inserted into the wire JSON verbatim, so callers can supply exotic
// values (negative, scientific notation, out-of-range) the typed library
// would refuse to construct.
func postRawRegistered1(ctx context.T, rc *runctx.Context, kind int, createdAtLiteral string, tagsJSON string, content string) (bool, string, error) {
	id, rawJSON, err := signer.BuildRawEvent(rc.Signers.Registered1, createdAtLiteral, kind, tagsJSON, content)
	if err != nil {
		return false, "", err
	}
	return rc.Conn.PostRawEvent(ctx, id, rawJSON, rc.Timeouts.Suite)
}

func minuteTimestamp(minutesAgo int) nostr.Timestamp {
	return nostr.Timestamp(time.Now().Add(-time.Duration(minutesAgo) * time.Minute).Unix())
}

func nowUnix() int64 { return time.Now().Unix() }

// postTypedAsRegistered1 signs ev with the Registered1 identity via the
// typed go-nostr library and posts it, returning the relay's OK outcome.
func postTypedAsRegistered1(ctx context.T, rc *runctx.Context, ev *nostr.Event) (bool, string, error) {
	if err := rc.Signers.Registered1.Sign(ev); err != nil {
		return false, "", err
	}
	return rc.Conn.PostEvent(ctx, ev, rc.Timeouts.Suite)
}

// postTypedAsRegistered2 is the Registered2 equivalent of
// postTypedAsRegistered1.
func postTypedAsRegistered2(ctx context.T, rc *runctx.Context, ev *nostr.Event) (bool, string, error) {
	if err := rc.Signers.Registered2.Sign(ev); err != nil {
		return false, "", err
	}
	return rc.Conn.PostEvent(ctx, ev, rc.Timeouts.Suite)
}

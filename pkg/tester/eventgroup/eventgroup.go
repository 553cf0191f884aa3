// Package eventgroup builds and submits "Event Group A": a canonical fixture
// of fifteen named, timed, tagged events used by every find/replaceable/
// addressable test. It is built lazily on first use and injected at most
// once per run (spec §4.4).
package eventgroup

import (
	"time"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/connection"
	"relaytester.dev/pkg/tester/runerr"
	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/utils/context"
	"relaytester.dev/pkg/utils/log"
)

// Nostr kinds used by the fixture. TextNote/Metadata/ContactList/BookmarkList
// are standard NIP-01/NIP-51 kinds; FollowSet is a NIP-51 addressable kind;
// MultiTagKind is an arbitrary addressable-range kind used purely to
// exercise multi-value tag matching.
const (
	KindTextNote    = 1
	KindMetadata    = 0
	KindContactList = 3
	KindEphemeral   = 21212
	KindMultiTag    = 30383
	KindFollowSet   = 39089
	KindBookmarks   = 10003
)

// BookmarkAnchorID is the fixed id the two bookmark-list fixture events
// reference via an "e" tag; it doesn't need to resolve to a real event for
// the filter/find tests that use it.
const BookmarkAnchorID = "c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00"

// Entry is one fixture event plus whether it is currently expected to be
// readable back from the relay.
type Entry struct {
	Name           string
	Event          nostr.Event
	ExpectReadable bool
}

// Group is the ordered, named collection backing Event Group A.
type Group struct {
	order  []string
	byName map[string]*Entry
}

func minutesAgo(m int) nostr.Timestamp {
	return nostr.Timestamp(time.Now().Add(-time.Duration(m) * time.Minute).Unix())
}

// Build constructs the fifteen fixture events (unsigned; signing happens at
// submission time as Registered1). Declared order is submission order.
func Build(author signer.Signer) *Group {
	g := &Group{byName: map[string]*Entry{}}

	add := func(name string, kind int, createdAt nostr.Timestamp, tags nostr.Tags, content string, readable bool) {
		ev := nostr.Event{
			PubKey:    author.PublicKeyHex,
			CreatedAt: createdAt,
			Kind:      kind,
			Tags:      tags,
			Content:   content,
		}
		g.order = append(g.order, name)
		g.byName[name] = &Entry{Name: name, Event: ev, ExpectReadable: readable}
	}

	add("limit_test_first", KindTextNote, minutesAgo(40), nostr.Tags{{"t", "a"}}, "limit_test_first", true)
	add("limit_test_third", KindTextNote, minutesAgo(50), nostr.Tags{{"t", "a"}}, "limit_test_third", true)
	add("limit_test_second", KindTextNote, minutesAgo(45), nostr.Tags{{"t", "b"}}, "limit_test_second", true)
	add("limit_test_fourth", KindTextNote, minutesAgo(55), nostr.Tags{{"t", "b"}}, "limit_test_fourth", true)

	add("metadata_older", KindMetadata, minutesAgo(60), nil, "metadata_older", false)
	add("metadata_newer", KindMetadata, minutesAgo(0), nil, "metadata_newer", true)

	add("contactlist_newer", KindContactList, minutesAgo(10), nil, "contactlist_newer", true)
	add("contactlist_older", KindContactList, minutesAgo(70), nil, "contactlist_older", false)

	add("ephemeral", KindEphemeral, minutesAgo(10), nil, "ephemeral", false)

	add("multipletags", KindMultiTag, minutesAgo(10), nostr.Tags{{"k", "3036"}, {"n", "approved"}}, "multipletags", true)
	add("multipletags_shouldntmatch", KindMultiTag, minutesAgo(10), nostr.Tags{{"n", "approved"}}, "multipletags_shouldntmatch", true)

	add("older_param_replaceable", KindFollowSet, minutesAgo(120), nostr.Tags{{"d", "1"}}, "older_param_replaceable", false)
	add("newer_param_replaceable", KindFollowSet, minutesAgo(60), nostr.Tags{{"d", "1"}}, "newer_param_replaceable", true)

	add("older_replaceable", KindBookmarks, minutesAgo(80), nostr.Tags{{"e", BookmarkAnchorID}}, "older_replaceable", false)
	// spec.md §3 is authoritative over original_source's apparent bug: only
	// the newer bookmark-list event is expected readable (see DESIGN.md).
	add("newer_replaceable", KindBookmarks, minutesAgo(60), nostr.Tags{{"e", BookmarkAnchorID}}, "newer_replaceable", true)

	return g
}

// Get returns the named fixture entry.
func (g *Group) Get(name string) (*Entry, bool) {
	e, ok := g.byName[name]
	return e, ok
}

// Iter returns all fixture entries in declared order.
func (g *Group) Iter() []*Entry {
	out := make([]*Entry, 0, len(g.order))
	for _, n := range g.order {
		out = append(out, g.byName[n])
	}
	return out
}

// SubmitAll signs and submits every fixture event in declared order as the
// given signer (Registered1), lowering ExpectReadable to false for any
// event the relay rejects (spec §4.4 step 3).
func SubmitAll(ctx context.T, group *Group, conn *connection.Connection, as signer.Signer, timeout time.Duration) error {
	for _, name := range group.order {
		e := group.byName[name]
		ev := e.Event
		if err := as.Sign(&ev); err != nil {
			return runerr.NostrTypes(err)
		}
		e.Event = ev
		ok, reason, err := conn.PostEvent(ctx, &ev, timeout)
		if err != nil {
			return err
		}
		if !ok {
			log.I.F("event group a: %s rejected by relay: %s", name, reason)
			e.ExpectReadable = false
		}
	}
	return nil
}

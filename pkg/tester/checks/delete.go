package checks

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/outcome"
	"relaytester.dev/pkg/tester/runctx"
	"relaytester.dev/pkg/utils/context"
)

// stillReadableById reports whether an id is returned by a fresh query.
func stillReadableById(ctx context.T, rc *runctx.Context, id string) (bool, error) {
	filter := nostr.Filter{IDs: []string{id}}
	res, err := rc.Conn.FetchEvents(ctx, nostr.Filters{filter}, rc.Timeouts.Suite)
	if err != nil {
		return false, err
	}
	got := res.PreEOSEEvents
	if res.PostEOSEEvents != nil {
		got = append(got, (*res.PostEOSEEvents)...)
	}
	for _, e := range got {
		if e.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func deleteRequest(tags nostr.Tags) nostr.Event {
	return nostr.Event{Kind: 5, Tags: tags, Content: "requested by the conformance harness"}
}

// DeleteById posts a note then a NIP-09 delete-by-id request for it, and
// expects the note to stop being returned.
func DeleteById(ctx context.T, rc *runctx.Context) outcome.Outcome {
	note := nostr.Event{Kind: 1, Content: "delete_by_id target"}
	if err := requirePosted("prerequisite note", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &note)
	}); err != nil {
		return errOutcome(err)
	}

	del := deleteRequest(nostr.Tags{nostr.Tag{"e", note.ID}})
	if err := requirePosted("delete request", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &del)
	}); err != nil {
		return errOutcome(err)
	}

	readable, err := stillReadableById(ctx, rc, note.ID)
	if err != nil {
		return errOutcome(err)
	}
	if readable {
		return outcome.Fail("deleted event is still returned by id")
	}
	return outcome.Pass("")
}

// RejectsDeleteByIdOfOthers has Registered2 post a note and Registered1
// attempt to delete it; the relay must refuse to honor a delete request
// for an event it didn't sign.
func RejectsDeleteByIdOfOthers(ctx context.T, rc *runctx.Context) outcome.Outcome {
	note := nostr.Event{Kind: 1, Content: "rejects_delete_by_id_of_others target"}
	if err := requirePosted("prerequisite note", func() (bool, string, error) {
		return postTypedAsRegistered2(ctx, rc, &note)
	}); err != nil {
		return errOutcome(err)
	}

	del := deleteRequest(nostr.Tags{nostr.Tag{"e", note.ID}})
	// The delete request itself may be accepted at the protocol level
	// (OK true) while having no effect on someone else's event; either an
	// OK-false rejection or a no-op both satisfy this check, so only the
	// event's continued presence is asserted.
	_, _, err := postTypedAsRegistered1(ctx, rc, &del)
	if err != nil {
		return errOutcome(err)
	}

	readable, err := stillReadableById(ctx, rc, note.ID)
	if err != nil {
		return errOutcome(err)
	}
	if !readable {
		return outcome.Fail("relay deleted an event on behalf of a delete request from a different author")
	}
	return outcome.Pass("")
}

// RejectsResubmissionOfDeletedById checks that re-posting the exact same
// (already deleted) event is refused or at least doesn't restore it.
func RejectsResubmissionOfDeletedById(ctx context.T, rc *runctx.Context) outcome.Outcome {
	note := nostr.Event{Kind: 1, Content: "rejects_resubmission_of_deleted_by_id target"}
	if err := requirePosted("prerequisite note", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &note)
	}); err != nil {
		return errOutcome(err)
	}
	del := deleteRequest(nostr.Tags{nostr.Tag{"e", note.ID}})
	if err := requirePosted("delete request", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &del)
	}); err != nil {
		return errOutcome(err)
	}

	_, _, err := rc.Conn.PostEvent(ctx, &note, rc.Timeouts.Suite)
	if err != nil {
		return errOutcome(err)
	}

	readable, err := stillReadableById(ctx, rc, note.ID)
	if err != nil {
		return errOutcome(err)
	}
	if readable {
		return outcome.Fail("resubmitting a deleted event made it readable again")
	}
	return outcome.Pass("")
}

// DeleteByATag posts an addressable event then deletes it by "a" tag
// coordinate, and expects it to stop being returned.
func DeleteByATag(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: 30383, Tags: nostr.Tags{{"d", "delete_by_a_tag_test"}}, Content: "delete_by_a_tag target"}
	if err := requirePosted("prerequisite addressable event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &ev)
	}); err != nil {
		return errOutcome(err)
	}

	coord := fmt.Sprintf("%d:%s:%s", ev.Kind, ev.PubKey, "delete_by_a_tag_test")
	del := deleteRequest(nostr.Tags{nostr.Tag{"a", coord}})
	if err := requirePosted("delete request", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &del)
	}); err != nil {
		return errOutcome(err)
	}

	readable, err := stillReadableById(ctx, rc, ev.ID)
	if err != nil {
		return errOutcome(err)
	}
	if readable {
		return outcome.Fail("addressable event deleted by a-tag is still returned by id")
	}
	return outcome.Pass("")
}

// NoDeleteByATagOfOthers is DeleteByATag's cross-author rejection
// counterpart.
func NoDeleteByATagOfOthers(ctx context.T, rc *runctx.Context) outcome.Outcome {
	ev := nostr.Event{Kind: 30383, Tags: nostr.Tags{{"d", "no_delete_by_a_tag_of_others"}}, Content: "target"}
	if err := requirePosted("prerequisite addressable event", func() (bool, string, error) {
		return postTypedAsRegistered2(ctx, rc, &ev)
	}); err != nil {
		return errOutcome(err)
	}

	coord := fmt.Sprintf("%d:%s:%s", ev.Kind, ev.PubKey, "no_delete_by_a_tag_of_others")
	del := deleteRequest(nostr.Tags{nostr.Tag{"a", coord}})
	if _, _, err := postTypedAsRegistered1(ctx, rc, &del); err != nil {
		return errOutcome(err)
	}

	readable, err := stillReadableById(ctx, rc, ev.ID)
	if err != nil {
		return errOutcome(err)
	}
	if !readable {
		return outcome.Fail("relay deleted another author's addressable event via an a-tag delete request")
	}
	return outcome.Pass("")
}

// DeleteByAddrPreservesNewer reproduces the literal scenario from spec §8
// scenario 4: an older and newer addressable event share a "d" value; a
// delete-by-a-tag request whose created_at predates the newer event must
// remove only the older one.
func DeleteByAddrPreservesNewer(ctx context.T, rc *runctx.Context) outcome.Outcome {
	const d = "delete_by_addr_test_bound"
	older := nostr.Event{Kind: 30383, CreatedAt: minuteTimestamp(20), Tags: nostr.Tags{{"d", d}}, Content: "older"}
	if err := requirePosted("older addressable event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &older)
	}); err != nil {
		return errOutcome(err)
	}

	del := deleteRequest(nostr.Tags{nostr.Tag{"a", fmt.Sprintf("%d:%s:%s", older.Kind, older.PubKey, d)}})
	del.CreatedAt = minuteTimestamp(10)
	if err := requirePosted("delete request", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &del)
	}); err != nil {
		return errOutcome(err)
	}

	newer := nostr.Event{Kind: 30383, CreatedAt: nostr.Now(), Tags: nostr.Tags{{"d", d}}, Content: "newer"}
	if err := requirePosted("newer addressable event", func() (bool, string, error) {
		return postTypedAsRegistered1(ctx, rc, &newer)
	}); err != nil {
		return errOutcome(err)
	}

	olderReadable, err := stillReadableById(ctx, rc, older.ID)
	if err != nil {
		return errOutcome(err)
	}
	if olderReadable {
		return outcome.Fail("older addressable event survived an in-bounds delete-by-a-tag request")
	}
	newerReadable, err := stillReadableById(ctx, rc, newer.ID)
	if err != nil {
		return errOutcome(err)
	}
	if !newerReadable {
		return outcome.Fail("delete-by-a-tag request removed an event created after the delete request's timestamp")
	}
	return outcome.Pass("")
}

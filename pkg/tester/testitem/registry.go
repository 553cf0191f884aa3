package testitem

import (
	"relaytester.dev/pkg/tester/checks"
	"relaytester.dev/pkg/tester/stage"
)

// Table is the closed enumeration of every test case this harness runs,
// grouped by the stage in which it executes. Within a stage, declared
// order is execution order.
func init() {
	Table = []TestItem{
		// --- Preauth: NIP-11 document, before any AUTH exchange -------
		{Key: "nip11_provided", Name: "relay provides a NIP-11 information document", Required: true, Stage: stage.Preauth, Run: checks.Nip11Provided},
		{Key: "claims_nip1", Name: "NIP-11 document lists support for NIP-01", Required: false, Stage: stage.Preauth, Run: checks.ClaimsNip1},
		{Key: "claims_nip9", Name: "NIP-11 document lists support for NIP-09", Required: false, Stage: stage.Preauth, Run: checks.ClaimsNip9},
		{Key: "claims_nip11", Name: "NIP-11 document lists support for NIP-11", Required: false, Stage: stage.Preauth, Run: checks.ClaimsNip11},
		{Key: "claims_nip42", Name: "NIP-11 document lists support for NIP-42", Required: false, Stage: stage.Preauth, Run: checks.ClaimsNip42},
		{Key: "claims_nip70", Name: "NIP-11 document lists support for NIP-70", Required: false, Stage: stage.Preauth, Run: checks.ClaimsNip70},
		{Key: "prompts_for_auth_initially", Name: "relay challenges for AUTH shortly after connecting", Required: true, Stage: stage.Preauth, Run: checks.PromptsForAuthInitially},

		// --- Registered: authenticated as Registered1 ------------------
		{Key: "can_auth_as_unknown", Name: "an unregistered key can complete AUTH", Required: false, Stage: stage.Registered, Run: checks.CanAuthAsUnknown},
		{Key: "sends_ok_after_event", Name: "relay sends OK after EVENT", Required: true, Stage: stage.Registered, Run: checks.SendsOkAfterEvent},
		{Key: "verifies_signatures", Name: "relay rejects an event with an invalid signature", Required: true, Stage: stage.Registered, Run: checks.VerifiesSignatures},
		{Key: "verifies_id_hashes", Name: "relay rejects an event with a tampered id", Required: true, Stage: stage.Registered, Run: checks.VerifiesIdHashes},

		{Key: "accepts_nip1_escapes", Name: "accepts content with NIP-01-listed JSON escapes", Required: true, Stage: stage.Registered, Run: checks.AcceptsNip1Escapes},
		{Key: "accepts_unlisted_escapes", Name: "accepts content with unlisted-but-legal JSON escapes", Required: false, Stage: stage.Registered, Run: checks.AcceptsUnlistedEscapes},
		{Key: "accepts_unicode_literals", Name: "accepts content with non-ASCII unicode literals", Required: true, Stage: stage.Registered, Run: checks.AcceptsUnicodeLiterals},
		{Key: "accepts_non_character_utf8", Name: "accepts content containing Unicode non-character code points", Required: false, Stage: stage.Registered, Run: checks.AcceptsNonCharacterUtf8},
		{Key: "accepts_empty_tags", Name: "accepts an event whose tags are only empty arrays", Required: false, Stage: stage.Registered, Run: checks.AcceptsEmptyTags},

		{Key: "accepts_current_time", Name: "accepts created_at at the current time", Required: true, Stage: stage.Registered, Run: checks.AcceptsCurrentTime},
		{Key: "accepts_recent_past", Name: "accepts created_at an hour in the past", Required: true, Stage: stage.Registered, Run: checks.AcceptsRecentPast},
		{Key: "accepts_distant_past", Name: "accepts created_at of 86400 (one day after the Unix epoch)", Required: false, Stage: stage.Registered, Run: checks.AcceptsDistantPast},
		{Key: "accepts_unix_epoch", Name: "accepts created_at of 0", Required: false, Stage: stage.Registered, Run: checks.AcceptsUnixEpoch},
		{Key: "rejects_negative_time", Name: "rejects a negative created_at", Required: true, Stage: stage.Registered, Run: checks.RejectsNegativeTime},
		{Key: "accepts_near_future_time", Name: "accepts created_at a minute in the future", Required: true, Stage: stage.Registered, Run: checks.AcceptsNearFutureTime},
		{Key: "rejects_distant_future_time", Name: "rejects created_at ten years in the future", Required: false, Stage: stage.Registered, Run: checks.RejectsDistantFutureTime},
		{Key: "rejects_int32_max_plus_one", Name: "rejects created_at of int32_max+1", Required: false, Stage: stage.Registered, Run: checks.RejectsInt32MaxPlusOne},
		{Key: "rejects_int32_max_plus_two", Name: "rejects created_at of int32_max+2", Required: false, Stage: stage.Registered, Run: checks.RejectsInt32MaxPlusTwo},
		{Key: "rejects_scientific_notation", Name: "rejects a scientific-notation created_at", Required: true, Stage: stage.Registered, Run: checks.RejectsScientificNotation},
		{Key: "rejects_floating_point", Name: "rejects a floating-point created_at", Required: true, Stage: stage.Registered, Run: checks.RejectsFloatingPoint},
		{Key: "rejects_non_numeric", Name: "rejects a non-numeric created_at", Required: true, Stage: stage.Registered, Run: checks.RejectsNonNumeric},

		{Key: "supports_eose", Name: "relay sends EOSE after stored events", Required: true, Stage: stage.Registered, Run: checks.SupportsEose},
		{Key: "closes_complete_subscriptions_after_eose", Name: "closes subscriptions satisfied by their limit after EOSE", Required: false, Stage: stage.Registered, Run: checks.ClosesCompleteSubscriptionsAfterEose},
		{Key: "keeps_open_incomplete_subscriptions_after_eose", Name: "keeps unbounded subscriptions open after EOSE", Required: true, Stage: stage.Registered, Run: checks.KeepsOpenIncompleteSubscriptionsAfterEose},

		{Key: "find_by_id", Name: "finds an event by id", Required: true, Stage: stage.Registered, Run: checks.FindByID},
		{Key: "find_by_pubkey_and_kind", Name: "finds events by pubkey and kind", Required: true, Stage: stage.Registered, Run: checks.FindByPubkeyAndKind},
		{Key: "find_by_pubkey_and_tags", Name: "finds events by pubkey and tag", Required: true, Stage: stage.Registered, Run: checks.FindByPubkeyAndTags},
		{Key: "find_by_kind_and_tags", Name: "finds events by kind and tag", Required: true, Stage: stage.Registered, Run: checks.FindByKindAndTags},
		{Key: "find_by_tags", Name: "finds events by a shared tag alone", Required: true, Stage: stage.Registered, Run: checks.FindByTags},
		{Key: "find_by_multiple_tags", Name: "finds events matching multiple tag keys jointly", Required: true, Stage: stage.Registered, Run: checks.FindByMultipleTags},
		{Key: "find_by_pubkey", Name: "finds events by pubkey alone", Required: true, Stage: stage.Registered, Run: checks.FindByPubkey},
		{Key: "find_by_scrape", Name: "finds events with a broad unfiltered scrape", Required: false, Stage: stage.Registered, Run: checks.FindByScrape},
		{Key: "newest_to_oldest", Name: "returns events newest-first when limited", Required: true, Stage: stage.Registered, Run: checks.NewestToOldest},
		{Key: "newest_events_when_limited", Name: "a limit of 1 returns only the single newest event", Required: true, Stage: stage.Registered, Run: checks.NewestEventsWhenLimited},
		{Key: "order", Name: "results stay newest-first across a broader query", Required: true, Stage: stage.Registered, Run: checks.Order},

		{Key: "accepts_metadata", Name: "accepts a kind-0 metadata event", Required: true, Stage: stage.Registered, Run: checks.AcceptsMetadata},
		{Key: "replaces_metadata", Name: "a newer kind-0 event replaces an older one", Required: true, Stage: stage.Registered, Run: checks.ReplacesMetadata},
		{Key: "accepts_contact_list", Name: "accepts a kind-3 contact list event", Required: true, Stage: stage.Registered, Run: checks.AcceptsContactList},
		{Key: "replaces_contact_list", Name: "a newer kind-3 event replaces an older one", Required: true, Stage: stage.Registered, Run: checks.ReplacesContactList},
		{Key: "replaced_events_still_available_by_id", Name: "a superseded replaceable event is still fetchable by id", Required: false, Stage: stage.Registered, Run: checks.ReplacedEventsStillAvailableById},
		{Key: "replaceable_event_removes_previous", Name: "a replaceable event removes its predecessor from default queries", Required: true, Stage: stage.Registered, Run: checks.ReplaceableEventRemovesPrevious},
		{Key: "replaceable_event_doesnt_remove_future", Name: "a replaceable event doesn't remove a newer successor", Required: true, Stage: stage.Registered, Run: checks.ReplaceableEventDoesntRemoveFuture},
		{Key: "addressable_event_removes_previous", Name: "an addressable event removes its predecessor for the same d tag", Required: true, Stage: stage.Registered, Run: checks.AddressableEventRemovesPrevious},
		{Key: "addressable_event_doesnt_remove_future", Name: "an addressable event doesn't remove a newer successor", Required: true, Stage: stage.Registered, Run: checks.AddressableEventDoesntRemoveFuture},
		{Key: "find_replaceable_event", Name: "finds a replaceable event by author and kind", Required: true, Stage: stage.Registered, Run: checks.FindReplaceableEvent},
		{Key: "find_addressable_event", Name: "finds an addressable event by author, kind and d tag", Required: true, Stage: stage.Registered, Run: checks.FindAddressableEvent},

		{Key: "persists_ephemeral_events", Name: "ephemeral events are not returned by later queries", Required: true, Stage: stage.Registered, Run: checks.PersistsEphemeralEvents},
		{Key: "ephemeral_subscriptions_work", Name: "ephemeral events are delivered live to open subscriptions", Required: true, Stage: stage.Registered, Run: checks.EphemeralSubscriptionsWork},

		{Key: "delete_by_id", Name: "deletes an event by id", Required: true, Stage: stage.Registered, Run: checks.DeleteById},
		{Key: "rejects_delete_by_id_of_others", Name: "refuses to delete another author's event by id", Required: true, Stage: stage.Registered, Run: checks.RejectsDeleteByIdOfOthers},
		{Key: "rejects_resubmission_of_deleted_by_id", Name: "does not resurrect an event deleted by id on resubmission", Required: false, Stage: stage.Registered, Run: checks.RejectsResubmissionOfDeletedById},
		{Key: "delete_by_a_tag", Name: "deletes an addressable event by a-tag coordinate", Required: true, Stage: stage.Registered, Run: checks.DeleteByATag},
		{Key: "no_delete_by_a_tag_of_others", Name: "refuses to delete another author's addressable event by a-tag", Required: true, Stage: stage.Registered, Run: checks.NoDeleteByATagOfOthers},
		{Key: "delete_by_addr_preserves_newer", Name: "a bounded a-tag delete request doesn't remove events created after it", Required: true, Stage: stage.Registered, Run: checks.DeleteByAddrPreservesNewer},

		// --- Stranger: reconnected and authenticated as an unregistered key
		{Key: "public_can_write", Name: "an unregistered key can write a plain note", Required: false, Stage: stage.Stranger, Run: checks.PublicCanWrite},
		{Key: "accepts_relay_lists_from_public", Name: "accepts a relay list event from an unregistered key", Required: false, Stage: stage.Stranger, Run: checks.AcceptsRelayListsFromPublic},
		{Key: "accepts_dm_relay_lists_from_public", Name: "accepts a DM relay list event from an unregistered key", Required: false, Stage: stage.Stranger, Run: checks.AcceptsDmRelayListsFromPublic},
		{Key: "accepts_ephemeral_events_from_public", Name: "accepts an ephemeral event from an unregistered key", Required: false, Stage: stage.Stranger, Run: checks.AcceptsEphemeralEventsFromPublic},
		{Key: "rejects_wrong_relay_tag", Name: "rejects an AUTH event with the wrong relay tag", Required: true, Stage: stage.Stranger, Run: checks.RejectsWrongRelayTag},
		{Key: "rejects_stale_challenge", Name: "rejects an AUTH event with a stale/fabricated challenge", Required: true, Stage: stage.Stranger, Run: checks.RejectsStaleChallenge},
		{Key: "rejects_wrong_kind", Name: "rejects an AUTH event with the wrong kind", Required: true, Stage: stage.Stranger, Run: checks.RejectsWrongKind},
		{Key: "rejects_stale_created_at", Name: "rejects an AUTH event with a stale created_at", Required: false, Stage: stage.Stranger, Run: checks.RejectsStaleCreatedAt},
	}
}

package eventgroup

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaytester.dev/pkg/tester/signer"
)

func testSigner(t *testing.T) signer.Signer {
	t.Helper()
	s, err := signer.Generate()
	require.NoError(t, err)
	return s
}

func TestBuildProducesFifteenEntriesInDeclaredOrder(t *testing.T) {
	g := Build(testSigner(t))

	want := []string{
		"limit_test_first",
		"limit_test_third",
		"limit_test_second",
		"limit_test_fourth",
		"metadata_older",
		"metadata_newer",
		"contactlist_newer",
		"contactlist_older",
		"ephemeral",
		"multipletags",
		"multipletags_shouldntmatch",
		"older_param_replaceable",
		"newer_param_replaceable",
		"older_replaceable",
		"newer_replaceable",
	}

	iter := g.Iter()
	require.Len(t, iter, len(want))
	for i, name := range want {
		assert.Equal(t, name, iter[i].Name, "position %d", i)
	}
}

func TestBuildAssignsExpectedKindsAndAuthor(t *testing.T) {
	author := testSigner(t)
	g := Build(author)

	cases := map[string]int{
		"limit_test_first":        KindTextNote,
		"metadata_newer":          KindMetadata,
		"contactlist_newer":       KindContactList,
		"ephemeral":               KindEphemeral,
		"multipletags":            KindMultiTag,
		"older_param_replaceable": KindFollowSet,
		"newer_replaceable":       KindBookmarks,
	}
	for name, kind := range cases {
		e, ok := g.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, e.Event.Kind, name)
		assert.Equal(t, author.PublicKeyHex, e.Event.PubKey, name)
	}
}

func hasTag(tags nostr.Tags, key, value string) bool {
	for _, t := range tags {
		if len(t) >= 2 && t[0] == key && t[1] == value {
			return true
		}
	}
	return false
}

func TestMultiTagEntryCarriesBothTags(t *testing.T) {
	g := Build(testSigner(t))

	e, ok := g.Get("multipletags")
	require.True(t, ok)
	assert.True(t, hasTag(e.Event.Tags, "k", "3036"))
	assert.True(t, hasTag(e.Event.Tags, "n", "approved"))

	shouldnt, ok := g.Get("multipletags_shouldntmatch")
	require.True(t, ok)
	assert.False(t, hasTag(shouldnt.Event.Tags, "k", "3036"))
}

func TestParamReplaceablePairSharesDTag(t *testing.T) {
	g := Build(testSigner(t))

	older, ok := g.Get("older_param_replaceable")
	require.True(t, ok)
	newer, ok := g.Get("newer_param_replaceable")
	require.True(t, ok)

	assert.True(t, older.Event.CreatedAt < newer.Event.CreatedAt)
	assert.False(t, older.ExpectReadable)
	assert.True(t, newer.ExpectReadable)
}

// Bookmark-list pair expects only the newer event readable: spec.md §3 is
// authoritative over original_source's apparent bug here (see DESIGN.md).
func TestBookmarkListPairOnlyNewerReadable(t *testing.T) {
	g := Build(testSigner(t))

	older, ok := g.Get("older_replaceable")
	require.True(t, ok)
	newer, ok := g.Get("newer_replaceable")
	require.True(t, ok)

	assert.Equal(t, BookmarkAnchorID, older.Event.Tags[0][1])
	assert.Equal(t, BookmarkAnchorID, newer.Event.Tags[0][1])
	assert.False(t, older.ExpectReadable)
	assert.True(t, newer.ExpectReadable)
}

func TestMetadataAndContactListPairsFavorNewest(t *testing.T) {
	g := Build(testSigner(t))

	for _, pair := range []struct{ older, newer string }{
		{"metadata_older", "metadata_newer"},
		{"contactlist_older", "contactlist_newer"},
	} {
		o, ok := g.Get(pair.older)
		require.True(t, ok)
		n, ok := g.Get(pair.newer)
		require.True(t, ok)
		assert.True(t, o.Event.CreatedAt < n.Event.CreatedAt)
		assert.False(t, o.ExpectReadable)
		assert.True(t, n.ExpectReadable)
	}
}

func TestEphemeralEntryStartsUnreadable(t *testing.T) {
	g := Build(testSigner(t))

	e, ok := g.Get("ephemeral")
	require.True(t, ok)
	assert.False(t, e.ExpectReadable)
}

func TestGetUnknownNameReturnsFalse(t *testing.T) {
	g := Build(testSigner(t))

	_, ok := g.Get("does_not_exist")
	assert.False(t, ok)
}

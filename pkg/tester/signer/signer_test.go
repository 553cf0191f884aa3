package signer

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesUsableKeypair(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)
	assert.Len(t, s.SecretKeyHex, 64)
	assert.Len(t, s.PublicKeyHex, 64)

	ev := &nostr.Event{Kind: 1, Content: "hello"}
	require.NoError(t, s.Sign(ev))
	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFromBech32RejectsNonNsec(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)
	npub, err := nip19.EncodePublicKey(s.PublicKeyHex)
	require.NoError(t, err)

	_, err = FromBech32(npub)
	assert.Error(t, err)
}

func TestEscapeRawContentEscapesOnlyControlChars(t *testing.T) {
	got := escapeRawContent("quote:\" backslash:\\ newline:\n tab:\t héllo")
	assert.True(t, strings.HasPrefix(got, `"`))
	assert.True(t, strings.HasSuffix(got, `"`))
	assert.Contains(t, got, `\"`)
	assert.Contains(t, got, `\\`)
	assert.Contains(t, got, `\n`)
	assert.Contains(t, got, `\t`)
	// non-ASCII passes through untouched, not \u-escaped.
	assert.Contains(t, got, "héllo")
}

func TestBuildRawEventProducesVerifiableSignature(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	id, rawJSON, err := BuildRawEvent(s, "1700000000", 1, "[]", "raw path probe")
	require.NoError(t, err)
	assert.Len(t, id, 64)
	assert.Contains(t, rawJSON, `"id":"`+id+`"`)
	assert.Contains(t, rawJSON, `"created_at":1700000000`)

	var ev nostr.Event
	require.NoError(t, json.Unmarshal([]byte(rawJSON), &ev))
	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildRawEventWithTamperedIDSignsOverGivenID(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	tampered := strings.Repeat("ab", 32)
	rawJSON, err := BuildRawEventWithTamperedID(s, "1700000000", 1, "[]", "tampered id probe", tampered)
	require.NoError(t, err)
	assert.Contains(t, rawJSON, `"id":"`+tampered+`"`)

	var ev nostr.Event
	require.NoError(t, json.Unmarshal([]byte(rawJSON), &ev))
	idBytes, err := hex.DecodeString(tampered)
	require.NoError(t, err)
	pkBytes, err := hex.DecodeString(ev.PubKey)
	require.NoError(t, err)
	pub, err := schnorr.ParsePubKey(pkBytes)
	require.NoError(t, err)
	sigBytes, err := hex.DecodeString(ev.Sig)
	require.NoError(t, err)
	sig, err := schnorr.ParseSignature(sigBytes)
	require.NoError(t, err)
	assert.True(t, sig.Verify(idBytes, pub))
}

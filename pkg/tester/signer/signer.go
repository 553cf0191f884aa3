// Package signer wraps the three signing identities the harness drives the
// relay with: a freshly generated Stranger, and two externally supplied
// Registered keys. Typed events are signed through go-nostr (Sign); raw
// events are hashed and signed here directly with schnorr (BuildRawEvent,
// BuildRawEventWithTamperedID).
package signer

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/minio/sha256-simd"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"lukechampine.com/frand"
)

// User names one of the three identities a call can act as.
type User int

const (
	Stranger User = iota
	Registered1
	Registered2
)

func (u User) String() string {
	switch u {
	case Stranger:
		return "stranger"
	case Registered1:
		return "registered1"
	case Registered2:
		return "registered2"
	default:
		return "unknown-user"
	}
}

// Signer is one hex secp256k1 keypair.
type Signer struct {
	SecretKeyHex string
	PublicKeyHex string
}

// New derives the public key from a hex secret key.
func New(secretKeyHex string) (Signer, error) {
	pub, err := nostr.GetPublicKey(secretKeyHex)
	if err != nil {
		return Signer{}, fmt.Errorf("deriving public key: %w", err)
	}
	return Signer{SecretKeyHex: secretKeyHex, PublicKeyHex: pub}, nil
}

// FromBech32 decodes a CLI-supplied "nsec1..." private key.
func FromBech32(nsec string) (Signer, error) {
	prefix, value, err := nip19.Decode(nsec)
	if err != nil {
		return Signer{}, fmt.Errorf("decoding bech32 key: %w", err)
	}
	if prefix != "nsec" {
		return Signer{}, fmt.Errorf("expected nsec1... private key, got prefix %q", prefix)
	}
	sk, ok := value.(string)
	if !ok {
		return Signer{}, fmt.Errorf("unexpected nsec payload type %T", value)
	}
	return New(sk)
}

// Generate creates a fresh random keypair, used for the Stranger identity.
// Entropy comes from lukechampine.com/frand rather than crypto/rand
// directly, matching the teacher's own benchmark key generator.
func Generate() (Signer, error) {
	sk := hex.EncodeToString(frand.Bytes(32))
	return New(sk)
}

// Sign signs ev in place as this identity, setting PubKey/CreatedAt(if
// zero)/ID/Sig.
func (s Signer) Sign(ev *nostr.Event) error {
	ev.PubKey = s.PublicKeyHex
	if ev.CreatedAt == 0 {
		ev.CreatedAt = nostr.Now()
	}
	return ev.Sign(s.SecretKeyHex)
}

// escapeRawContent writes s's raw bytes into a JSON string literal,
// escaping only '"', '\\' and the five control characters with short JSON
// escapes (\b \f \n \r \t); every other byte, including other control
// characters, is written as is. Unlike
// encoding/json.Marshal this never rejects or substitutes invalid UTF-8 --
// several json-edge-case tests deliberately submit non-character byte
// sequences that must reach the wire unmodified.
func escapeRawContent(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		case '\b':
			out = append(out, '\\', 'b')
		case '\f':
			out = append(out, '\\', 'f')
		default:
			out = append(out, c)
		}
	}
	out = append(out, '"')
	return string(out)
}

// BuildRawEvent constructs and signs an event entirely outside the typed
// go-nostr library: the canonical serialization is assembled by hand, its
// id computed with sha256-simd, and the signature produced directly with
// schnorr over the id bytes. This is the "raw path" spec §9 requires for
// tests the typed library cannot express: a literal (not necessarily
// well-formed) created_at, hand-built tags JSON, and content that may
// contain control characters or invalid UTF-8.
//
// createdAtLiteral is inserted into the canonical array and the wire body
// verbatim (e.g. "1700000000", "-200", "1e+10"). tagsJSON is inserted
// verbatim (e.g. "[]", "[[],[]]").
func BuildRawEvent(as Signer, createdAtLiteral string, kind int, tagsJSON string, content string) (id string, rawJSON string, err error) {
	contentJSON := escapeRawContent(content)
	canon := fmt.Sprintf(`[0,"%s",%s,%d,%s,%s]`, as.PublicKeyHex, createdAtLiteral, kind, tagsJSON, contentJSON)
	sum := sha256.Sum256([]byte(canon))
	id = hex.EncodeToString(sum[:])

	skBytes, err := hex.DecodeString(as.SecretKeyHex)
	if err != nil {
		return "", "", fmt.Errorf("decoding secret key: %w", err)
	}
	priv, _ := btcec.PrivKeyFromBytes(skBytes)
	sig, err := schnorr.Sign(priv, sum[:])
	if err != nil {
		return "", "", fmt.Errorf("signing raw event: %w", err)
	}
	sigHex := hex.EncodeToString(sig.Serialize())

	rawJSON = fmt.Sprintf(
		`{"id":"%s","pubkey":"%s","created_at":%s,"kind":%d,"tags":%s,"content":%s,"sig":"%s"}`,
		id, as.PublicKeyHex, createdAtLiteral, kind, tagsJSON, contentJSON, sigHex,
	)
	return id, rawJSON, nil
}

// BuildRawEventWithTamperedID is used by verifies_id_hashes: it signs OVER
// a tampered id rather than the correctly computed one, so a correct relay
// must reject it on independent id recomputation.
func BuildRawEventWithTamperedID(as Signer, createdAtLiteral string, kind int, tagsJSON string, content string, tamperedID string) (rawJSON string, err error) {
	contentJSON := escapeRawContent(content)
	idBytes, err := hex.DecodeString(tamperedID)
	if err != nil {
		return "", fmt.Errorf("decoding tampered id: %w", err)
	}
	skBytes, err := hex.DecodeString(as.SecretKeyHex)
	if err != nil {
		return "", fmt.Errorf("decoding secret key: %w", err)
	}
	priv, _ := btcec.PrivKeyFromBytes(skBytes)
	sig, err := schnorr.Sign(priv, idBytes)
	if err != nil {
		return "", fmt.Errorf("signing tampered id: %w", err)
	}
	sigHex := hex.EncodeToString(sig.Serialize())
	rawJSON = fmt.Sprintf(
		`{"id":"%s","pubkey":"%s","created_at":%s,"kind":%d,"tags":%s,"content":%s,"sig":"%s"}`,
		tamperedID, as.PublicKeyHex, createdAtLiteral, kind, tagsJSON, contentJSON, sigHex,
	)
	return rawJSON, nil
}

// Set holds all three identities for a run.
type Set struct {
	Stranger    Signer
	Registered1 Signer
	Registered2 Signer
}

// By returns the Signer for the named user.
func (s Set) By(u User) Signer {
	switch u {
	case Registered1:
		return s.Registered1
	case Registered2:
		return s.Registered2
	default:
		return s.Stranger
	}
}

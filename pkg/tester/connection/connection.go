// Package connection is the probe: a long-lived, authenticating, framed
// WebSocket client exposing the request/response affordances the test
// runners consume (post_event, fetch_events, fetch_events_keep_open,
// post_raw_event, authenticate_if_challenged, reconnect, disconnect), while
// transparently absorbing the relay's AUTH challenges and OK
// acknowledgments. One Connection is driven by one logical caller at a
// time; there is no internal request multiplexing.
package connection

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/nbd-wtf/go-nostr"

	"relaytester.dev/pkg/tester/runerr"
	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/utils/context"
	"relaytester.dev/pkg/utils/log"
)

const (
	// HandshakeTimeout bounds the initial dial and any reconnect dial.
	HandshakeTimeout = 5 * time.Second
	// ReconnectCooloff is the fixed wait before a reconnect attempt.
	ReconnectCooloff = 3 * time.Second
	// ReconnectSettle is the extra wait after a successful reconnect dial,
	// to let the peer settle before the caller sends anything.
	ReconnectSettle = 250 * time.Millisecond
	// AuthDrain is how long authenticate_if_challenged waits for the
	// relay's OK after sending the signed AUTH event.
	AuthDrain = 1 * time.Second
)

// FetchResult is the return of a subscription-based fetch (spec §3).
type FetchResult struct {
	// SubID is present only if the caller chose keep-open.
	SubID *string
	// PreEOSEEvents arrived before end-of-stored-events.
	PreEOSEEvents []*nostr.Event
	// PostEOSEEvents is non-nil iff EOSE was observed; may be empty.
	PostEOSEEvents *[]*nostr.Event
	// CloseMsg is present iff the relay closed the subscription with a
	// reason; absent means the local timeout fired first.
	CloseMsg *string
}

// Connection owns one framed bidirectional text-message channel to the
// relay plus the auth sub-state-machine and subscription id allocator.
type Connection struct {
	RelayURL string

	mu           sync.Mutex
	ws           *websocket.Conn
	auth         AuthState
	dupAuth      bool
	subCounter   int
	disconnected bool
	sawOkAfterEv bool
}

// New opens the channel and performs the protocol handshake.
func New(ctx context.T, relayURL string) (*Connection, error) {
	hctx, cancel := context.Timeout(ctx, HandshakeTimeout)
	defer cancel()
	ws, _, err := websocket.Dial(hctx, relayURL, nil)
	if err != nil {
		return nil, runerr.Websocket(fmt.Errorf("dialing %s: %w", relayURL, err))
	}
	ws.SetReadLimit(32 << 20)
	return &Connection{
		RelayURL: relayURL,
		ws:       ws,
		auth:     AuthState{Kind: NotYetRequested},
	}, nil
}

// AuthState returns a copy of the current authentication state.
func (c *Connection) AuthState() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth
}

// DupAuth reports whether a duplicate (out-of-sequence) AUTH challenge was
// observed.
func (c *Connection) DupAuth() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dupAuth
}

// SawOkAfterEvent reports whether any OK has ever been observed (used by
// sends_ok_after_event).
func (c *Connection) SawOkAfterEvent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sawOkAfterEv
}

// Disconnected reports the process-wide-per-connection disconnected flag.
func (c *Connection) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// nextSubID allocates the next sub{N} id, monotonic for this connection's
// lifetime (reset on reconnect).
func (c *Connection) nextSubID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := fmt.Sprintf("sub%d", c.subCounter)
	c.subCounter++
	return id
}

// SubCounter snapshots the allocator's current value, used by the stage
// driver to attach the [before, after) range to an Outcome.
func (c *Connection) SubCounter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subCounter
}

// Reconnect cools off 3s, re-dials, settles 250ms, closes the previous
// socket if one is still held, and resets all per-connection state.
func (c *Connection) Reconnect(ctx context.T) error {
	time.Sleep(ReconnectCooloff)
	hctx, cancel := context.Timeout(ctx, HandshakeTimeout)
	defer cancel()
	ws, _, err := websocket.Dial(hctx, c.RelayURL, nil)
	if err != nil {
		return runerr.Websocket(fmt.Errorf("reconnecting to %s: %w", c.RelayURL, err))
	}
	ws.SetReadLimit(32 << 20)
	time.Sleep(ReconnectSettle)

	c.mu.Lock()
	if c.ws != nil {
		_ = c.ws.Close(websocket.StatusNormalClosure, "reconnecting")
	}
	c.ws = ws
	c.auth = AuthState{Kind: NotYetRequested}
	c.dupAuth = false
	c.subCounter = 0
	c.disconnected = false
	c.mu.Unlock()
	return nil
}

// Disconnect sends a graceful close frame and marks the connection
// disconnected; send errors are ignored (we're closing anyway).
func (c *Connection) Disconnect() {
	c.mu.Lock()
	ws := c.ws
	c.disconnected = true
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "test complete")
	}
}

func (c *Connection) markDisconnected() {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

// sendRaw writes a text frame, reconnecting first if the disconnected flag
// is set.
func (c *Connection) sendRaw(ctx context.T, data []byte) error {
	c.mu.Lock()
	disc := c.disconnected
	c.mu.Unlock()
	if disc {
		if err := c.Reconnect(ctx); err != nil {
			return err
		}
	}
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		c.markDisconnected()
		return runerr.Websocket(err)
	}
	return nil
}

// SendEnvelope marshals env as JSON text and transmits it.
func (c *Connection) SendEnvelope(ctx context.T, env interface{ MarshalJSON() ([]byte, error) }) error {
	data, err := env.MarshalJSON()
	if err != nil {
		return runerr.Json(err)
	}
	return c.sendRaw(ctx, data)
}

// waitRaw reads exactly one frame from the transport (blocking up to
// timeout), classifying remote closes/EOF as ErrDisconnected and local
// timer expiry as (nil, nil).
func (c *Connection) waitRaw(ctx context.T, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	rctx, cancel := context.Timeout(ctx, timeout)
	defer cancel()
	typ, data, err := ws.Read(rctx)
	if err != nil {
		if rctx.Err() != nil && ctx.Err() == nil {
			// local timer elapsed, not a remote close
			return nil, nil
		}
		c.markDisconnected()
		time.Sleep(ReconnectCooloff)
		return nil, runerr.ErrDisconnected
	}
	if typ == websocket.MessageBinary {
		// Binary frames are silently dropped per spec; caller loops again.
		return nil, nil
	}
	return data, nil
}

// WaitForMessage is the central receive routine (spec §4.1). AUTH and
// matching-id OK messages are intercepted and folded into the auth
// sub-state-machine rather than returned to the caller.
func (c *Connection) WaitForMessage(ctx context.T, timeout time.Duration) (nostr.Envelope, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		data, err := c.waitRaw(ctx, remaining)
		if err != nil {
			return nil, err
		}
		if data == nil {
			if time.Now().After(deadline) {
				return nil, nil
			}
			continue
		}
		env, perr := nostr.ParseMessage(data)
		if perr != nil {
			log.T.F("unparseable relay message ignored: %v", perr)
			continue
		}
		if handled := c.interceptAuthOrOk(env); handled {
			continue
		}
		return env, nil
	}
}

// interceptAuthOrOk applies the AUTH/OK interception rules from spec §4.2
// and returns true if the message was consumed rather than returned.
func (c *Connection) interceptAuthOrOk(env nostr.Envelope) bool {
	switch e := env.(type) {
	case *nostr.AuthEnvelope:
		c.mu.Lock()
		defer c.mu.Unlock()
		if e.Challenge != nil {
			if c.auth.Kind == NotYetRequested {
				c.auth = AuthState{Kind: Challenged, Challenge: *e.Challenge}
			} else {
				c.dupAuth = true
			}
			return true
		}
		return true
	case *nostr.OKEnvelope:
		c.mu.Lock()
		c.sawOkAfterEv = true
		pending := c.auth.Kind == InProgress && c.auth.PendingID == e.EventID
		if pending {
			if e.OK {
				c.auth = AuthState{Kind: Success}
			} else {
				c.auth = AuthState{Kind: Failure, Reason: e.Reason}
			}
		}
		c.mu.Unlock()
		return pending
	default:
		return false
	}
}

// AuthenticateIfChallenged builds, signs, and sends the AUTH event if the
// connection currently holds an outstanding challenge, then drains
// responses for up to AuthDrain so the resulting OK (consumed by
// WaitForMessage) has a chance to land before returning.
func (c *Connection) AuthenticateIfChallenged(ctx context.T, who signer.Signer) error {
	c.mu.Lock()
	state := c.auth
	c.mu.Unlock()
	if state.Kind != Challenged {
		return nil
	}

	ev := nostr.Event{
		Kind: nostr.KindClientAuthentication,
		Tags: nostr.Tags{
			nostr.Tag{"relay", c.RelayURL},
			nostr.Tag{"challenge", state.Challenge},
		},
		Content: "",
	}
	if err := who.Sign(&ev); err != nil {
		return runerr.NostrTypes(err)
	}

	c.mu.Lock()
	c.auth = AuthState{Kind: InProgress, PendingID: ev.ID}
	c.mu.Unlock()

	env := nostr.AuthEnvelope{Event: ev}
	if err := c.SendEnvelope(ctx, env); err != nil {
		return err
	}

	// Drain; any unrelated message is simply ignored here -- the caller
	// that cares about non-auth traffic reads separately.
	deadline := time.Now().Add(AuthDrain)
	for time.Now().Before(deadline) {
		_, err := c.WaitForMessage(ctx, time.Until(deadline))
		if err != nil {
			return err
		}
	}
	return nil
}

// SendDeliberateAuth is used by the auth-rejection tests to sign and send
// an AUTH event with one field deliberately wrong, bypassing the normal
// AuthenticateIfChallenged helper (spec §4.2, "several tests deliberately
// supply wrong values to verify this").
func (c *Connection) SendDeliberateAuth(ctx context.T, who signer.Signer, ev nostr.Event) (string, error) {
	if err := who.Sign(&ev); err != nil {
		return "", runerr.NostrTypes(err)
	}
	c.mu.Lock()
	c.auth = AuthState{Kind: InProgress, PendingID: ev.ID}
	c.mu.Unlock()
	env := nostr.AuthEnvelope{Event: ev}
	return ev.ID, c.SendEnvelope(ctx, env)
}

// fetchEventsInner is shared by FetchEvents and FetchEventsKeepOpen.
func (c *Connection) fetchEventsInner(ctx context.T, filters nostr.Filters, timeout time.Duration, keepOpen bool) (FetchResult, error) {
	subID := c.nextSubID()
	req := nostr.ReqEnvelope{SubscriptionID: subID, Filters: filters}
	if err := c.SendEnvelope(ctx, req); err != nil {
		return FetchResult{}, err
	}

	var result FetchResult
	sawEOSE := false
	var post []*nostr.Event

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		env, err := c.WaitForMessage(ctx, remaining)
		if err != nil {
			return FetchResult{}, err
		}
		if env == nil {
			break
		}
		switch e := env.(type) {
		case *nostr.EventEnvelope:
			if e.SubscriptionID == nil || *e.SubscriptionID != subID {
				continue
			}
			if sawEOSE {
				post = append(post, e.Events...)
			} else {
				result.PreEOSEEvents = append(result.PreEOSEEvents, e.Events...)
			}
		case *nostr.EOSEEnvelope:
			if string(*e) == subID {
				sawEOSE = true
			}
		case *nostr.ClosedEnvelope:
			if e.SubscriptionID == subID {
				reason := e.Reason
				result.CloseMsg = &reason
				if sawEOSE {
					result.PostEOSEEvents = &post
				}
				if !keepOpen {
					return result, nil
				}
				result.SubID = &subID
				return result, nil
			}
		default:
			// NOTICE and anything else unrelated: ignore.
		}
	}

	// Local timeout.
	if sawEOSE {
		result.PostEOSEEvents = &post
	}
	if keepOpen {
		result.SubID = &subID
	} else {
		_ = c.CloseSubscription(ctx, subID)
	}
	return result, nil
}

// FetchEvents opens a subscription, waits up to timeout, and always leaves
// it closed (sending an explicit CLOSE on local timeout).
func (c *Connection) FetchEvents(ctx context.T, filters nostr.Filters, timeout time.Duration) (FetchResult, error) {
	return c.fetchEventsInner(ctx, filters, timeout, false)
}

// FetchEventsKeepOpen is the same but leaves the subscription open on local
// timeout, returning its SubID so the caller can CollectEvents later.
func (c *Connection) FetchEventsKeepOpen(ctx context.T, filters nostr.Filters, timeout time.Duration) (FetchResult, error) {
	return c.fetchEventsInner(ctx, filters, timeout, true)
}

// CollectEvents reads only events on subID, returning on first timeout.
func (c *Connection) CollectEvents(ctx context.T, subID string, timeout time.Duration) ([]*nostr.Event, error) {
	var got []*nostr.Event
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return got, nil
		}
		env, err := c.WaitForMessage(ctx, remaining)
		if err != nil {
			return got, err
		}
		if env == nil {
			return got, nil
		}
		if e, ok := env.(*nostr.EventEnvelope); ok {
			if e.SubscriptionID != nil && *e.SubscriptionID == subID {
				got = append(got, e.Events...)
			}
		}
	}
}

// CloseSubscription sends a CLOSE request for subID.
func (c *Connection) CloseSubscription(ctx context.T, subID string) error {
	env := nostr.CloseEnvelope(subID)
	return c.SendEnvelope(ctx, env)
}

// PostEvent sends ev and waits for its terminal OK.
func (c *Connection) PostEvent(ctx context.T, ev *nostr.Event, timeout time.Duration) (bool, string, error) {
	env := nostr.EventEnvelope{Events: []*nostr.Event{ev}}
	if err := c.SendEnvelope(ctx, env); err != nil {
		return false, "", err
	}
	return c.awaitOk(ctx, ev.ID, timeout)
}

// PostRawEvent sends a pre-serialized event JSON body (used for malformed
// or edge-case tests the typed library cannot construct) and waits for its
// terminal OK, matched against the externally supplied eventID.
func (c *Connection) PostRawEvent(ctx context.T, eventID string, rawJSON string, timeout time.Duration) (bool, string, error) {
	msg := fmt.Sprintf(`["EVENT",%s]`, rawJSON)
	if err := c.sendRaw(ctx, []byte(msg)); err != nil {
		return false, "", err
	}
	return c.awaitOk(ctx, eventID, timeout)
}

func (c *Connection) awaitOk(ctx context.T, eventID string, timeout time.Duration) (bool, string, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, "", runerr.ErrTimedOut
		}
		env, err := c.WaitForMessage(ctx, remaining)
		if err != nil {
			return false, "", err
		}
		if env == nil {
			return false, "", runerr.ErrTimedOut
		}
		if e, ok := env.(*nostr.OKEnvelope); ok && e.EventID == eventID {
			return e.OK, e.Reason, nil
		}
	}
}

// RawEventJSON renders ev (and a tampered/overridden id if idOverride is
// non-empty) in the canonical field order spec §6 requires, for tests that
// need to control the exact JSON bytes sent.
func RawEventJSON(ev nostr.Event, idOverride string) (string, error) {
	id := ev.ID
	if idOverride != "" {
		id = idOverride
	}
	type wire struct {
		ID        string   `json:"id"`
		PubKey    string   `json:"pubkey"`
		CreatedAt int64    `json:"created_at"`
		Kind      int      `json:"kind"`
		Tags      [][]string `json:"tags"`
		Content   string   `json:"content"`
		Sig       string   `json:"sig"`
	}
	tags := make([][]string, len(ev.Tags))
	for i, t := range ev.Tags {
		tags[i] = []string(t)
	}
	b, err := json.Marshal(wire{
		ID: id, PubKey: ev.PubKey, CreatedAt: int64(ev.CreatedAt),
		Kind: ev.Kind, Tags: tags, Content: ev.Content, Sig: ev.Sig,
	})
	if err != nil {
		return "", runerr.Json(err)
	}
	return string(b), nil
}

// HostAndScheme converts a ws(s):// relay URL into the http(s):// URL used
// for the NIP-11 fetch.
func HostAndScheme(relayURL string) string {
	switch {
	case strings.HasPrefix(relayURL, "wss://"):
		return "https://" + strings.TrimPrefix(relayURL, "wss://")
	case strings.HasPrefix(relayURL, "ws://"):
		return "http://" + strings.TrimPrefix(relayURL, "ws://")
	default:
		return relayURL
	}
}

package connection

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaytester.dev/pkg/tester/signer"
	"relaytester.dev/pkg/utils/context"
)

// fakeRelay accepts a single websocket connection and hands the server side
// to the test, which drives exactly what it reads and sends back.
type fakeRelay struct {
	srv        *httptest.Server
	acceptedCh chan *websocket.Conn
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()
	fr := &fakeRelay{acceptedCh: make(chan *websocket.Conn, 1)}
	fr.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		fr.acceptedCh <- c
	}))
	t.Cleanup(fr.srv.Close)
	return fr
}

func (fr *fakeRelay) wsURL() string {
	return "ws" + fr.srv.URL[len("http"):]
}

func (fr *fakeRelay) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-fr.acceptedCh:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("relay never accepted connection")
		return nil
	}
}

func dial(t *testing.T, fr *fakeRelay) *Connection {
	t.Helper()
	ctx := context.Bg()
	conn, err := New(ctx, fr.wsURL())
	require.NoError(t, err)
	t.Cleanup(conn.Disconnect)
	return conn
}

func TestNextSubIDIsMonotonicPerConnection(t *testing.T) {
	fr := newFakeRelay(t)
	conn := dial(t, fr)
	server := fr.accept(t)
	defer server.Close(websocket.StatusNormalClosure, "")

	assert.Equal(t, "sub0", conn.nextSubID())
	assert.Equal(t, "sub1", conn.nextSubID())
	assert.Equal(t, 2, conn.SubCounter())
}

func TestAuthStateTransitionsOnChallengeAndOk(t *testing.T) {
	fr := newFakeRelay(t)
	conn := dial(t, fr)
	server := fr.accept(t)
	defer server.Close(websocket.StatusNormalClosure, "")

	ctx := context.Bg()
	assert.True(t, conn.AuthState().IsNotYetRequested())

	require.NoError(t, server.Write(ctx, websocket.MessageText, []byte(`["AUTH","challenge-123"]`)))

	// Drive the receive loop so the AUTH envelope is intercepted.
	_, err := conn.WaitForMessage(ctx, 500*time.Millisecond)
	require.NoError(t, err)

	state := conn.AuthState()
	assert.True(t, state.IsChallenged())
	assert.Equal(t, "challenge-123", state.Challenge)

	who, err := signer.Generate()
	require.NoError(t, err)

	go func() {
		typ, data, rerr := server.Read(ctx)
		if rerr != nil || typ != websocket.MessageText {
			return
		}
		_ = data
		_ = server.Write(ctx, websocket.MessageText, []byte(`["OK","`+pendingIDFrom(conn)+`",true,""]`))
	}()

	require.NoError(t, conn.AuthenticateIfChallenged(ctx, who))
	assert.Equal(t, Success, conn.AuthState().Kind)
}

// pendingIDFrom reads back the event id AuthenticateIfChallenged just set as
// pending, so the fake relay can echo a matching OK.
func pendingIDFrom(c *Connection) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth.PendingID
}

func TestDupAuthSetWhenChallengedTwice(t *testing.T) {
	fr := newFakeRelay(t)
	conn := dial(t, fr)
	server := fr.accept(t)
	defer server.Close(websocket.StatusNormalClosure, "")

	ctx := context.Bg()
	require.NoError(t, server.Write(ctx, websocket.MessageText, []byte(`["AUTH","first"]`)))
	_, err := conn.WaitForMessage(ctx, 500*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, conn.DupAuth())

	require.NoError(t, server.Write(ctx, websocket.MessageText, []byte(`["AUTH","second"]`)))
	_, err = conn.WaitForMessage(ctx, 500*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, conn.DupAuth())
}

func TestFetchEventsSplitsPreAndPostEose(t *testing.T) {
	fr := newFakeRelay(t)
	conn := dial(t, fr)
	server := fr.accept(t)
	defer server.Close(websocket.StatusNormalClosure, "")

	ctx := context.Bg()
	go func() {
		_, _, _ = server.Read(ctx)
		_ = server.Write(ctx, websocket.MessageText, []byte(`["EVENT","sub0",{"id":"`+idHex("a")+`","pubkey":"`+idHex("b")+`","created_at":1,"kind":1,"tags":[],"content":"pre","sig":"`+sigHex()+`"}]`))
		_ = server.Write(ctx, websocket.MessageText, []byte(`["EOSE","sub0"]`))
		_ = server.Write(ctx, websocket.MessageText, []byte(`["EVENT","sub0",{"id":"`+idHex("c")+`","pubkey":"`+idHex("b")+`","created_at":2,"kind":1,"tags":[],"content":"post","sig":"`+sigHex()+`"}]`))
		_ = server.Write(ctx, websocket.MessageText, []byte(`["CLOSED","sub0","done"]`))
	}()

	res, err := conn.FetchEvents(ctx, nil, 2*time.Second)
	require.NoError(t, err)
	require.Len(t, res.PreEOSEEvents, 1)
	assert.Equal(t, "pre", res.PreEOSEEvents[0].Content)
	require.NotNil(t, res.PostEOSEEvents)
	require.Len(t, *res.PostEOSEEvents, 1)
	assert.Equal(t, "post", (*res.PostEOSEEvents)[0].Content)
	require.NotNil(t, res.CloseMsg)
	assert.Equal(t, "done", *res.CloseMsg)
}

func TestPostEventReturnsOkResult(t *testing.T) {
	fr := newFakeRelay(t)
	conn := dial(t, fr)
	server := fr.accept(t)
	defer server.Close(websocket.StatusNormalClosure, "")

	ctx := context.Bg()
	who, err := signer.Generate()
	require.NoError(t, err)
	ev := &nostr.Event{Kind: 1, Content: "hello"}
	require.NoError(t, who.Sign(ev))

	go func() {
		_, _, _ = server.Read(ctx)
		_ = server.Write(ctx, websocket.MessageText, []byte(`["OK","`+ev.ID+`",true,"stored"]`))
	}()

	ok, reason, err := conn.PostEvent(ctx, ev, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "stored", reason)
	assert.True(t, conn.SawOkAfterEvent())
}

func idHex(seed string) string {
	b := make([]byte, 32)
	copy(b, seed)
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}

func sigHex() string {
	out := make([]byte, 128)
	for i := range out {
		out[i] = '0'
	}
	return string(out)
}

package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chestshop.dev/internal/config"
	"chestshop.dev/internal/economy"
	"chestshop.dev/internal/market"
	"chestshop.dev/internal/protocol"
)

type recordingJoiner struct {
	mu     sync.Mutex
	joins  []uuid.UUID
	leaves []uuid.UUID
}

func (j *recordingJoiner) OnJoin(actor uuid.UUID, name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.joins = append(j.joins, actor)
}

func (j *recordingJoiner) OnLeave(actor uuid.UUID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.leaves = append(j.leaves, actor)
}

func (j *recordingJoiner) counts() (joins, leaves int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.joins), len(j.leaves)
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub, *recordingJoiner) {
	t.Helper()
	mgr := market.NewManager(config.Defaults(), market.Deps{
		World:   market.NewMemoryWorld(),
		Economy: economy.NewMemoryBackend(),
	})
	hub := NewHub()
	joiner := &recordingJoiner{}
	s := NewServer(mgr, hub, joiner, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, hub, joiner
}

func dialTestServer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

// Every session that joined the world must leave it again, however the
// connection ends.
func TestServer_JoinLeavePairing(t *testing.T) {
	srv, hub, joiner := newTestServer(t)
	conn := dialTestServer(t, srv)

	hello, _ := json.Marshal(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ActorName:       "alex",
	})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		t.Fatalf("welcome = %s (err %v)", msg, err)
	}
	actor, err := uuid.Parse(welcome.ActorID)
	if err != nil {
		t.Fatalf("welcome actor id: %v", err)
	}
	if !hub.Online(actor) {
		t.Fatalf("actor not online after welcome")
	}
	if joins, _ := joiner.counts(); joins != 1 {
		t.Fatalf("joins = %d, want 1", joins)
	}

	conn.Close()
	waitFor(t, func() bool {
		joins, leaves := joiner.counts()
		return joins == 1 && leaves == 1
	})
	if hub.Online(actor) {
		t.Fatalf("actor still online after disconnect")
	}
}

func TestServer_RejectsNonHello(t *testing.T) {
	srv, _, joiner := newTestServer(t)
	conn := dialTestServer(t, srv)
	defer conn.Close()

	chat, _ := json.Marshal(protocol.ChatMsg{
		Type:            protocol.TypeChat,
		ProtocolVersion: protocol.Version,
		Text:            "hi",
	})
	if err := conn.WriteMessage(websocket.TextMessage, chat); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("connection survived a non-HELLO first message")
	}
	if joins, leaves := joiner.counts(); joins != 0 || leaves != 0 {
		t.Fatalf("joiner called for a rejected handshake: %d joins, %d leaves", joins, leaves)
	}
}

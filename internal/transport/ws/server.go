package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chestshop.dev/internal/market"
	"chestshop.dev/internal/protocol"
)

// Joiner is told about actor sessions so the embedder can place actors in the
// world and clean up after them.
type Joiner interface {
	OnJoin(actor uuid.UUID, name string)
	OnLeave(actor uuid.UUID)
}

type Server struct {
	mgr    *market.Manager
	hub    *Hub
	joiner Joiner
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(mgr *market.Manager, hub *Hub, joiner Joiner, logger *log.Logger) *Server {
	return &Server{
		mgr:    mgr,
		hub:    hub,
		joiner: joiner,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		actor, name, ok := s.handshake(conn)
		if !ok {
			return
		}
		out := make(chan []byte, 32)
		s.hub.attach(actor, out)
		if s.joiner != nil {
			s.joiner.OnJoin(actor, name)
		}
		// Registered before the WELCOME write so a failed write still
		// detaches the session and leaves the world.
		defer func() {
			s.hub.detach(actor, out)
			if s.joiner != nil {
				s.joiner.OnLeave(actor)
			}
		}()

		if !s.welcome(conn, actor) {
			return
		}

		done := make(chan struct{})
		defer close(done)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeChat:
				var chat protocol.ChatMsg
				if err := json.Unmarshal(msg, &chat); err != nil {
					continue
				}
				if chat.ProtocolVersion != protocol.Version {
					continue
				}
				s.mgr.HandleChat(actor, chat.Text)
			case protocol.TypeInteract:
				var in protocol.InteractMsg
				if err := json.Unmarshal(msg, &in); err != nil {
					continue
				}
				if in.ProtocolVersion != protocol.Version {
					continue
				}
				kind, ok := actionKind(in.Action)
				if !ok {
					continue
				}
				pos := market.BlockPos{World: in.World, X: in.Pos[0], Y: in.Pos[1], Z: in.Pos[2]}
				var item market.Item
				if in.Item != nil {
					item = market.Item{ID: in.Item.ID, Meta: in.Item.Meta, Amount: in.Item.Amount}
				}
				s.mgr.HandleInteract(actor, pos, kind, item)
			}
		}
	}
}

func actionKind(s string) (market.ActionKind, bool) {
	switch s {
	case "CREATE":
		return market.ActionCreate, true
	case "TRADE":
		return market.ActionTrade, true
	}
	return 0, false
}

// handshake validates the HELLO and resolves the session identity. It does
// not touch the hub or the joiner; the Handler owns session lifecycle.
func (s *Server) handshake(conn *websocket.Conn) (uuid.UUID, string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return uuid.Nil, "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return uuid.Nil, "", false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return uuid.Nil, "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return uuid.Nil, "", false
	}
	if hello.ActorName == "" {
		hello.ActorName = "actor"
	}

	// Resume an existing identity when the client brings a valid id.
	actor := uuid.New()
	if hello.ActorID != "" {
		if id, err := uuid.Parse(hello.ActorID); err == nil {
			actor = id
		}
	}
	return actor, hello.ActorName, true
}

func (s *Server) welcome(conn *websocket.Conn, actor uuid.UUID) bool {
	b, err := json.Marshal(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ActorID:         actor.String(),
		World:           "world",
	})
	if err != nil {
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b) == nil
}

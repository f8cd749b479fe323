package ws

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/mihretdev/cardarena-services/internal/comm"
	"github.com/mihretdev/cardarena-services/internal/socketsvc/broker"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Ws tracks live socket connections and forwards client commands to
// the backend services over NATS.
type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// subjectFor routes a client command to the service that owns it. An
// empty subject means the command is unknown.
func subjectFor(msgType string) string {
	switch {
	case strings.HasPrefix(msgType, "battle-"):
		return comm.SubjectArena
	case strings.HasPrefix(msgType, "trade-"), strings.HasPrefix(msgType, "exchange-"):
		return comm.SubjectTrade
	}

	switch msgType {
	case "init", "get-balance", "stats", "collection", "card-detail",
		"wishlist-toggle", "set-title", "save-deck", "decks", "achievements":
		return comm.SubjectArena
	case "drop", "claim-drop", "daily", "claim-daily", "starter-pack",
		"shop", "buy-pack", "open-pack", "packs",
		"sell-card", "confirm-sell", "secret", "rebuild-drop-table":
		return comm.SubjectDrop
	}
	return ""
}

// SocketMessage handles a message from a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	subject := subjectFor(message.Type)
	if subject == "" {
		log.Warnf("unknown event received: %s", message.Type)
		return
	}

	// Every command carries the acting user.
	var payload struct {
		UserId int64 `json:"user_id"`
	}
	if err := json.Unmarshal(message.Data, &payload); err != nil || payload.UserId == 0 {
		log.Errorf("Error: malformed %s payload from socket %s", message.Type, socketId)
		return
	}

	// Tag the message with the socket so responses find their way back.
	message.SocketId = socketId

	bytes, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(subject, bytes); err != nil {
		log.Errorf("Failed to publish to NATS subject %s: %v", subject, err)
		return
	}

	log.Debugf("Published %s message for user %d to %s", message.Type, payload.UserId, subject)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// EachConnection visits every live connection, used for broadcasts.
func (s *Ws) EachConnection(fn func(socketId string, conn *websocket.Conn)) {
	s.connMap.Range(func(key, value interface{}) bool {
		fn(key.(string), value.(*websocket.Conn))
		return true
	})
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

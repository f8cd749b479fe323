package broker

import (
	"encoding/json"

	"github.com/mihretdev/cardarena-services/internal/comm"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker consumes push messages from the backend services and fans
// them out to the web clients.
type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	EachConnection func(func(string, *websocket.Conn))
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool),
	fncEachConnection func(func(string, *websocket.Conn))) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		EachConnection: fncEachConnection,
	}
}

func (b *Broker) Subscribe(subject string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(subject, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Publish forwards a client command to a backend service.
func (b *Broker) Publish(subject string, payload []byte) error {
	err := b.Conn.Publish(subject, payload)
	if err != nil {
		log.Errorf("Error publishing to subject %s: %s", subject, err)
		return err
	}

	return nil
}

// handleMessages receives push messages from the backend services. An
// empty socket id means the message goes to every connected client.
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, &message); err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if message.SocketId == "" {
		b.broadcast(message)
		return
	}
	b.sendMessage(message)
}

// send socket message to the web client
func (b *Broker) sendMessage(m *comm.WSMessage) {
	if conn, ok := b.GetConnection(m.SocketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Errorf("Error writing to socket %s: %s", m.SocketId, err)
		}
	}
}

func (b *Broker) broadcast(m *comm.WSMessage) {
	b.EachConnection(func(socketId string, conn *websocket.Conn) {
		if err := conn.WriteJSON(m); err != nil {
			log.Errorf("Error writing to socket %s: %s", socketId, err)
		}
	})
}

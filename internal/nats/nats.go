// Package nats wires the services to the message bus they trade
// envelopes over. Every service connects the same way: NATS_URL and an
// optional NATS_TOKEN.
package nats

import (
	"os"

	"github.com/nats-io/nats.go"
)

const defaultURL = "nats://localhost:4222"

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

// Connect dials the bus using the environment, falling back to a local
// default for development.
func Connect() (*Nats, error) {
	n := &Nats{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}
	if n.Url == "" {
		n.Url = defaultURL
	}

	opts := []nats.Option{
		nats.Name("cardarena"),
	}
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}
	n.Conn = conn

	return n, nil
}

// Package messaging runs the embedded NATS server that carries engine
// events from the tick loop to the connection sessions. The engine publishes
// to one subject per connection; each session subscribes to its own.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const defaultStartupTimeout = 10 * time.Second

type NatsServer struct {
	ns   *server.Server
	conn *nats.Conn

	startupTimeout time.Duration
	host           string
	port           int
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		startupTimeout: defaultStartupTimeout,
		host:           "127.0.0.1",
	}
	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true, // signal handling belongs to the application
	})
	if err != nil {
		return nil, fmt.Errorf("configuring nats server: %w", err)
	}
	s.ns = ns
	return s, nil
}

// Start runs the server until the context is cancelled, then drains the
// internal client and shuts the server down.
func (s *NatsServer) Start(ctx context.Context) error {
	s.ns.Start()

	if !s.ns.ReadyForConnections(s.startupTimeout) {
		return fmt.Errorf("nats server not ready after %s", s.startupTimeout)
	}

	conn, err := nats.Connect(s.clientURL(), nats.Name("mud-internal"))
	if err != nil {
		return fmt.Errorf("connecting internal nats client: %w", err)
	}
	s.conn = conn

	slog.InfoContext(ctx, "nats server listening", "addr", s.ns.Addr())

	<-ctx.Done()
	s.shutdown()
	return nil
}

func (s *NatsServer) shutdown() {
	// Flush whatever the tick loop published last before tearing down.
	s.conn.Drain()
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}

// Subscribe registers a handler for a subject and returns an unsubscribe
// function. Handlers run on NATS delivery goroutines, never the tick loop.
func (s *NatsServer) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	if s.conn == nil {
		return nil, fmt.Errorf("nats server not started")
	}
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %q: %w", subject, err)
	}
	return func() { sub.Unsubscribe() }, nil
}

// Publish sends a message to the given subject.
func (s *NatsServer) Publish(subject string, data []byte) error {
	if s.conn == nil {
		return fmt.Errorf("nats server not started")
	}
	return s.conn.Publish(subject, data)
}

func (s *NatsServer) clientURL() string {
	return fmt.Sprintf("nats://%s:%d", s.host, s.port)
}

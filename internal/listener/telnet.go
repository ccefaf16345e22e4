package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	"github.com/iammegalith/telnet"
	"github.com/pixil98/go-log"
	"github.com/sirupsen/logrus"
)

type TelnetListener struct {
	port uint16
	cm   *ConnectionManager
}

func NewTelnetListener(port uint16, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		port: port,
		cm:   cm,
	}
}

func (l *TelnetListener) Start(ctx context.Context) error {
	// Sessions get their own context so a shutdown can cancel them as a group.
	sessCtx, cancelSessions := context.WithCancel(context.Background())

	handler := &telnetHandler{
		accept:         l.cm.AcceptConnection,
		logger:         log.GetLogger(ctx),
		sessCtx:        sessCtx,
		cancelSessions: cancelSessions,
	}

	svr := telnet.NewServer(fmt.Sprintf(":%d", l.port), handler)

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			handler.drain()
		case <-stopped:
		}
	}()

	if err := svr.ListenAndServe(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("serving telnet on port %d: %w", l.port, err)
	}
	return nil
}

type telnetHandler struct {
	wg             sync.WaitGroup
	accept         func(context.Context, io.ReadWriter)
	logger         logrus.FieldLogger
	sessCtx        context.Context
	cancelSessions context.CancelFunc
}

func (h *telnetHandler) HandleTelnet(conn *telnet.Connection) {
	h.wg.Add(1)
	defer h.wg.Done()
	defer func() {
		if err := conn.Close(); err != nil {
			h.logger.Errorf("closing telnet connection: %s", err)
		}
	}()

	h.accept(log.SetLogger(h.sessCtx, h.logger), conn)
}

// drain cancels every live session and waits for the handlers to unwind.
func (h *telnetHandler) drain() {
	h.cancelSessions()
	h.wg.Wait()
}

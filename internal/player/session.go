// Package player runs one interactive session per connection: greet, ask
// for a name, hand the connection to the engine, then shuttle lines in and
// rendered events out until either side hangs up.
package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/RednibCoding/mudden-sub001/internal/display"
	"github.com/RednibCoding/mudden-sub001/internal/engine"
	"github.com/RednibCoding/mudden-sub001/internal/events"
)

const banner = "Welcome, traveler.\n"

var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{1,23}$`)

// GameServer is the engine surface a session needs. All three calls enqueue
// work for the tick loop; none of them block on it.
type GameServer interface {
	Connect(connID, name string)
	Disconnect(connID string)
	SubmitCommand(connID, line string)
}

// Bus delivers the engine's events for a subject.
type Bus interface {
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// Manager creates sessions for accepted connections.
type Manager struct {
	game     GameServer
	bus      Bus
	renderer *display.Renderer
}

func NewManager(game GameServer, bus Bus, renderer *display.Renderer) *Manager {
	return &Manager{
		game:     game,
		bus:      bus,
		renderer: renderer,
	}
}

// Start keeps the manager registered as a worker; sessions are driven by
// the listeners, not by this goroutine.
func (m *Manager) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// RunSession owns one connection from greeting to hangup.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	if _, err := conn.Write([]byte(banner)); err != nil {
		return err
	}

	name, err := Prompt(conn, "By what name do you wish to be known? ",
		WithMaxTries(5),
		WithValidator(func(str string) (bool, string) {
			if !nameRe.MatchString(str) {
				return false, "Names are 2 to 24 letters, digits, or dashes, and start with a letter.\n"
			}
			return true, ""
		}))
	if err != nil {
		return fmt.Errorf("reading name: %w", err)
	}

	connID := uuid.New().String()

	// Subscribe before connecting so the welcome event cannot race past us.
	msgs := make(chan []byte, 64)
	unsub, err := m.bus.Subscribe(engine.Subject(connID), func(data []byte) {
		select {
		case msgs <- data:
		default:
			// A session too slow to drain its feed loses events rather
			// than stalling a NATS delivery goroutine.
			slog.Warn("session event buffer full, dropping", "conn", connID)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	defer unsub()

	m.game.Connect(connID, name)
	defer m.game.Disconnect(connID)

	input := make(chan string)
	inputErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		inputErr <- scanner.Err()
		close(input)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case data := <-msgs:
			if err := m.deliver(conn, data); err != nil {
				return err
			}

		case line, ok := <-input:
			if !ok {
				select {
				case err := <-inputErr:
					return err
				default:
					return nil
				}
			}

			line = strings.TrimSpace(line)
			if line == "" {
				if err := writePrompt(conn); err != nil {
					return err
				}
				continue
			}

			if strings.EqualFold(line, "quit") {
				conn.Write([]byte("Goodbye!\n"))
				return nil
			}

			m.game.SubmitCommand(connID, line)
		}
	}
}

// deliver renders one bus message and writes it with a fresh prompt.
func (m *Manager) deliver(conn io.Writer, data []byte) error {
	ev, err := events.Decode(data)
	if err != nil {
		slog.Warn("undecodable event", "error", err)
		return nil
	}

	text, err := m.renderer.Render(ev)
	if err != nil {
		slog.Warn("rendering event", "type", ev.EventType(), "error", err)
		return nil
	}
	if text == "" {
		return nil
	}

	if _, err := conn.Write([]byte("\n" + text + "\n")); err != nil {
		return err
	}
	return writePrompt(conn)
}

func writePrompt(conn io.Writer) error {
	_, err := conn.Write([]byte("> "))
	return err
}

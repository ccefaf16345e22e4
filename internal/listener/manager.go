package listener

import (
	"context"
	"io"
	"log/slog"

	"github.com/RednibCoding/mudden-sub001/internal/player"
)

// ConnectionManager hands accepted connections to the session layer,
// regardless of which listener produced them.
type ConnectionManager struct {
	sessions *player.Manager
}

func NewConnectionManager(sessions *player.Manager) *ConnectionManager {
	return &ConnectionManager{
		sessions: sessions,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	if err := m.sessions.RunSession(ctx, conn); err != nil {
		slog.WarnContext(ctx, "player session ended", "error", err)
	}
}

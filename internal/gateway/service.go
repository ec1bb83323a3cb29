package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/game"
)

// Config bundles the gateway's moving parts. NATS is optional: without
// it the service expects snapshots through a LocalBroadcaster instead
// of the JetStream consumer.
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStream        *JetStreamConsumerConfig
}

// Service ties the command surface, the viewer WebSocket pool, and the
// optional snapshot consumer together.
type Service struct {
	manager  *ConnectionManager
	consumer *EventConsumer
	commands *CommandHandler
}

// NewService wires an existing connection manager to the command
// surface. The manager is built by the caller so a LocalBroadcaster
// can be attached to it before the engine exists.
func NewService(cfg Config, manager *ConnectionManager, app *game.App) (*Service, error) {
	svc := &Service{
		manager:  manager,
		commands: NewCommandHandler(app),
	}
	if cfg.JetStream != nil {
		consumer, err := NewEventConsumer(manager, *cfg.JetStream)
		if err != nil {
			return nil, fmt.Errorf("create event consumer: %w", err)
		}
		svc.consumer = consumer
	}
	return svc, nil
}

// Manager exposes the connection pool, e.g. to build a
// LocalBroadcaster for NATS-less deployments.
func (s *Service) Manager() *ConnectionManager {
	return s.manager
}

// Start runs the connection manager and, when configured, the snapshot
// consumer until the context ends.
func (s *Service) Start(ctx context.Context) error {
	go s.manager.Start(ctx)
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}
	<-ctx.Done()
	if s.consumer != nil {
		return s.consumer.Close()
	}
	return nil
}

// RegisterRoutes wires the full HTTP surface: commands, state export,
// the viewer WebSocket, and connection stats.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.commands.RegisterRoutes(mux)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /ws/stats", s.handleStats)
}

func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.UpgradeConnection(w, r); err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"total_connections":%d}`, s.manager.ConnectionCount())
}

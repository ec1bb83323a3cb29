package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// JetStreamConfig holds the connection and stream settings for the
// snapshot fan-out stream.
type JetStreamConfig struct {
	URL             string
	StreamName      string
	Subject         string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	MaxMsgs         int64
	Replicas        int
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "QUIZ_SNAPSHOTS",
		Subject:       "quiz.snapshot",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		// Only the latest snapshot matters to a late joiner.
		MaxAge:          time.Hour,
		MaxMsgs:         1024,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
	}
}

// JetStreamPublisher pushes every persisted snapshot onto a JetStream
// stream which the gateway consumer fans out over WebSocket.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamPublisher(cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}
	if err := p.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:       p.config.StreamName,
		Subjects:   []string{p.config.Subject},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     p.config.MaxAge,
		MaxMsgs:    p.config.MaxMsgs,
		Storage:    jetstream.FileStorage,
		Replicas:   p.config.Replicas,
		Duplicates: p.config.DuplicateWindow,
	}

	stream, err := p.js.Stream(ctx, p.config.StreamName)
	if err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("created JetStream stream")
		return nil
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !streamConfigEqual(info.Config, sc) {
		if _, err = p.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// Publish pushes the snapshot. The event id doubles as the JetStream
// dedup message id.
func (p *JetStreamPublisher) Publish(ctx context.Context, g *models.GameState, serverTime time.Time) error {
	ev := SnapshotEvent{
		EventID:      uuid.New().String(),
		ServerTimeMs: serverTime.UnixMilli(),
		Game:         g,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return gameerr.Broadcast(err, "encode snapshot event")
	}

	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: p.config.Subject,
		Data:    data,
		Header: nats.Header{
			"Event-ID": []string{ev.EventID},
		},
	},
		jetstream.WithMsgID(ev.EventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return gameerr.Broadcast(err, "publish snapshot")
	}

	log.Debug().
		Str("subject", p.config.Subject).
		Str("event_id", ev.EventID).
		Uint64("sequence", ack.Sequence).
		Str("round", string(g.Round)).
		Str("phase", string(g.Phase)).
		Msg("published snapshot")
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

func streamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}

package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/broadcast"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// LocalBroadcaster feeds snapshots straight into the connection
// manager, bypassing NATS. Used for single-process deployments and
// development.
type LocalBroadcaster struct {
	cm *ConnectionManager
}

func NewLocalBroadcaster(cm *ConnectionManager) *LocalBroadcaster {
	return &LocalBroadcaster{cm: cm}
}

func (b *LocalBroadcaster) Publish(ctx context.Context, g *models.GameState, serverTime time.Time) error {
	ev := broadcast.SnapshotEvent{
		EventID:      uuid.New().String(),
		ServerTimeMs: serverTime.UnixMilli(),
		Game:         g,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return gameerr.Broadcast(err, "encode snapshot event")
	}
	b.cm.Broadcast(data)
	return nil
}

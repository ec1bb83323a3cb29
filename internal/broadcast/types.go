package broadcast

import (
	"encoding/json"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// SnapshotEvent is the wire envelope for every push to viewers: the
// full game snapshot plus the server clock the deadline should be
// diffed against.
type SnapshotEvent struct {
	EventID      string            `json:"event_id"`
	ServerTimeMs int64             `json:"server_time_ms"`
	Game         *models.GameState `json:"game"`
}

// Decode parses a snapshot event off the wire.
func Decode(data []byte) (*SnapshotEvent, error) {
	var ev SnapshotEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

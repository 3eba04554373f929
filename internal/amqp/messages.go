package amqp

import (
	"encoding/json"
	"time"
)

// Message sources.
const (
	SourceIngest = "ingest"
	SourceAdmin  = "admin"
)

// DatasetRefreshMessage tells the dashboard that a new petition snapshot is
// available. It carries no data; the consumer reloads from its configured
// backend.
type DatasetRefreshMessage struct {
	Source     string    `json:"source"`
	Path       string    `json:"path,omitempty"`
	Rows       int64     `json:"rows,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewDatasetRefreshMessage stamps a refresh notification.
func NewDatasetRefreshMessage(source, path string, rows int64) *DatasetRefreshMessage {
	return &DatasetRefreshMessage{
		Source:     source,
		Path:       path,
		Rows:       rows,
		OccurredAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *DatasetRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetRefreshMessageFromJSON parses a message from JSON bytes.
func DatasetRefreshMessageFromJSON(data []byte) (*DatasetRefreshMessage, error) {
	var msg DatasetRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

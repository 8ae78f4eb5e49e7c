package webhook

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CloudEvent is the delivery envelope, following the CloudEvents 1.0
// attribute names.
type CloudEvent struct {
	SpecVersion string      `json:"specversion"`
	ID          string      `json:"id"`
	Source      string      `json:"source"`
	Type        string      `json:"type"`
	Time        string      `json:"time"`
	ContentType string      `json:"datacontenttype"`
	Data        interface{} `json:"data"`
}

// NewCloudEvent wraps an event payload in a CloudEvents envelope.
func NewCloudEvent(source, eventType string, data interface{}) CloudEvent {
	return CloudEvent{
		SpecVersion: "1.0",
		ID:          uuid.New().String(),
		Source:      source,
		Type:        eventType,
		Time:        time.Now().UTC().Format(time.RFC3339),
		ContentType: "application/json",
		Data:        data,
	}
}

// Marshal renders the envelope as the JSON request body.
func (e CloudEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

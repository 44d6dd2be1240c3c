package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EnvelopeVersion is the schema version stamped on every event.
const EnvelopeVersion = 1

// Header keys copied from the envelope onto each Kafka message.
const (
	HeaderEventType     = "event_type"
	HeaderSource        = "source"
	HeaderCorrelationID = "correlation_id"
	headerMetaPrefix    = "meta_"
)

// Event is the JSON envelope of every storefront message. For cart events the
// aggregate is the cart session and Data is the cart snapshot.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh ID and UTC timestamp.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", eventType, err)
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       EnvelopeVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          payload,
	}, nil
}

// WithCorrelationID ties the event to the request that caused it.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithMetadata records a free-form attribute, e.g. the host ("http" or "tui").
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	e.Metadata[key] = value
	return e
}

// Marshal encodes the envelope.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}

// UnmarshalEvent decodes an envelope written by Marshal.
func UnmarshalEvent(raw []byte) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(raw, event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

func (e *Event) headers() []kafka.Header {
	h := make([]kafka.Header, 0, 3+len(e.Metadata))
	h = append(h,
		kafka.Header{Key: HeaderEventType, Value: []byte(e.EventType)},
		kafka.Header{Key: HeaderSource, Value: []byte(e.Source)},
	)
	if e.CorrelationID != "" {
		h = append(h, kafka.Header{Key: HeaderCorrelationID, Value: []byte(e.CorrelationID)})
	}
	for k, v := range e.Metadata {
		h = append(h, kafka.Header{Key: headerMetaPrefix + k, Value: []byte(v)})
	}
	return h
}

// message builds the Kafka message for topic, keyed by aggregate ID.
func (e *Event) message(topic string) (kafka.Message, error) {
	value, err := e.Marshal()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(e.AggregateID),
		Value:   value,
		Headers: e.headers(),
	}, nil
}

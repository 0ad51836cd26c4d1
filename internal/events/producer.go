// Package events publishes domain events to Kafka.
package events

import (
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/phizone/record-api/internal/logging"
	"github.com/phizone/record-api/internal/models"
)

// EventType represents the type of a published event
type EventType string

const (
	// EventRecordCreated is emitted after a record submission succeeds
	EventRecordCreated EventType = "record.created"
)

// Event is the envelope for all published events
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// RecordCreatedData carries the payload of a record.created event
type RecordCreatedData struct {
	RecordID    uuid.UUID `json:"record_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	Username    string    `json:"username"`
	ChartID     uuid.UUID `json:"chart_id"`
	Score       int       `json:"score"`
	Accuracy    float64   `json:"accuracy"`
	Rks         float64   `json:"rks"`
	IsFullCombo bool      `json:"is_full_combo"`
}

// Producer publishes events to Kafka. Sends happen on their own goroutines
// so waiting for broker acks never delays the submission path; when the
// brokers are unreachable at startup the producer stays disabled and
// publishing is a no-op.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	enabled  bool
	inflight sync.WaitGroup
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		log := logging.Component("events")
		log.Warn().Err(err).Msg("kafka not available, events disabled")
		return &Producer{enabled: false, topic: topic}, nil
	}

	log := logging.Component("events")
	log.Info().Strs("brokers", brokers).Str("topic", topic).
		Msg("kafka producer connected")
	return &Producer{producer: producer, topic: topic, enabled: true}, nil
}

// Disabled returns a producer that drops all events
func Disabled() *Producer {
	return &Producer{enabled: false}
}

// PublishRecordCreated emits a record.created event
func (p *Producer) PublishRecordCreated(record *models.Record, player *models.Player) {
	if !p.enabled {
		return
	}

	event := Event{
		Type:      EventRecordCreated,
		Timestamp: time.Now(),
		Data: RecordCreatedData{
			RecordID:    record.ID,
			PlayerID:    record.OwnerID,
			Username:    player.Username,
			ChartID:     record.ChartID,
			Score:       record.Score,
			Accuracy:    record.Accuracy,
			Rks:         record.Rks,
			IsFullCombo: record.IsFullCombo,
		},
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.send(record.OwnerID.String(), event)
	}()
}

func (p *Producer) send(key string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log := logging.Component("events")
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log := logging.Component("events")
		log.Error().Err(err).Str("type", string(event.Type)).
			Msg("failed to publish event")
	}
}

// Close waits for in-flight sends and closes the producer
func (p *Producer) Close() error {
	p.inflight.Wait()
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/blissend/tempwatch/internal/probe"
)

// record is the JSON payload written per reading.
type record struct {
	Site      string    `json:"site,omitempty"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// Kafka streams every reading to a topic so downstream consumers (capacity
// planning, long-term storage) see the raw series, not just alerts.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates a publisher for the given brokers and topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// Publish writes one reading. Keyed by site so per-site ordering holds.
func (k *Kafka) Publish(ctx context.Context, r probe.Reading) error {
	b, err := json.Marshal(record{
		Site:      r.Site,
		Value:     r.Value,
		Unit:      r.Unit,
		Timestamp: r.Timestamp,
	})
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.Site),
		Value: b,
		Time:  r.Timestamp,
	})
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

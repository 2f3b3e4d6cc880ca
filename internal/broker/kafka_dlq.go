package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

// KafkaDLQClient parks submissions that could not be processed. Jobs are not
// retried automatically; the dead letter topic is the audit trail for a
// manual replay.
type KafkaDLQClient struct {
	kafkaWriter *kafka.Writer
	metrics     *telemetry.KafkaProducerMetrics
	cfg         *config.ProducerConfig
}

type deadLetter struct {
	Payload  string    `json:"payload"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

func NewKafkaDLQ(metrics *telemetry.KafkaProducerMetrics, cfg *config.ProducerConfig) *KafkaDLQClient {
	kafkaWriter := kafka.Writer{
		Addr:         kafka.TCP(cfg.Addr...),
		Topic:        cfg.DeadLetterTopicName,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    1,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaDLQClient{
		kafkaWriter: &kafkaWriter,
		metrics:     metrics,
		cfg:         cfg,
	}
}

func (d *KafkaDLQClient) SendToDLQ(payload string, cause error) {
	body, err := jsoniter.Marshal(deadLetter{
		Payload:  payload,
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal dead letter.", slog.String("err", err.Error()))
		d.metrics.FailedSendMsgCnt(1)
		return
	}
	err = d.kafkaWriter.WriteMessages(context.Background(), kafka.Message{Value: body})
	if err != nil {
		slog.Error("failed to send message to dlq.", slog.String("err", err.Error()))
		d.metrics.FailedSendMsgCnt(1)
		return
	}
	slog.Debug("message sent to dlq.")
}

func (d *KafkaDLQClient) Close() {
	err := d.kafkaWriter.Close()
	if err != nil {
		slog.Error("failed to close dlq writer.", slog.String("err", err.Error()))
	}
}

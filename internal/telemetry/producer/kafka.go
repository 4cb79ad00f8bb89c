package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// KafkaProducer implements Producer using segmentio/kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer creates a Kafka producer that writes import events to the given topic.
// It returns nil, nil when brokers or topic is empty, which leaves Kafka publishing disabled.
// Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, topic: topic}, nil
}

// Topic returns the topic events are written to.
func (p *KafkaProducer) Topic() string {
	if p == nil {
		return ""
	}
	return p.topic
}

// importMessage is the JSON value of a Kafka message.
type importMessage struct {
	AuditID    int64  `json:"audit_id"`
	LabID      int64  `json:"lab_id"`
	LabName    string `json:"lab_name"`
	LabCreated bool   `json:"lab_created"`
	Items      int    `json:"items"`
	Warnings   int    `json:"warnings"`
	AuditDate  string `json:"audit_date,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// messageFor keys the message by lab id so one lab's imports stay on one partition.
func messageFor(event *telemetry.ImportEvent) (kafka.Message, error) {
	m := importMessage{
		AuditID:    event.AuditID,
		LabID:      event.LabID,
		LabName:    event.LabName,
		LabCreated: event.LabCreated,
		Items:      event.Items,
		Warnings:   event.Warnings,
	}
	if !event.AuditDate.IsZero() {
		m.AuditDate = isotime.Format(event.AuditDate)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	m.OccurredAt = isotime.Format(occurred)

	payload, err := json.Marshal(m)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.LabID, 10)),
		Value: payload,
	}, nil
}

// DecodeMessage parses a message written by Emit back into an ImportEvent.
func DecodeMessage(msg kafka.Message) (*telemetry.ImportEvent, error) {
	var m importMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		return nil, fmt.Errorf("decode import message: %w", err)
	}
	event := &telemetry.ImportEvent{
		AuditID:    m.AuditID,
		LabID:      m.LabID,
		LabName:    m.LabName,
		LabCreated: m.LabCreated,
		Items:      m.Items,
		Warnings:   m.Warnings,
	}
	if m.AuditDate != "" {
		t, err := isotime.Parse(m.AuditDate)
		if err != nil {
			return nil, fmt.Errorf("decode import message: audit_date: %w", err)
		}
		event.AuditDate = t
	}
	if m.OccurredAt != "" {
		t, err := isotime.Parse(m.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("decode import message: occurred_at: %w", err)
		}
		event.OccurredAt = t
	}
	return event, nil
}

// Emit serializes the event as JSON and writes it to the Kafka topic.
// A short timeout keeps a slow broker from holding the caller indefinitely.
func (p *KafkaProducer) Emit(ctx context.Context, event *telemetry.ImportEvent) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	msg, err := messageFor(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, msg)
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

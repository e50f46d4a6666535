package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/infra/config"
)

// Producer sends keyed messages through a Sarama async producer. Delivery
// failures are logged by a background drain; Send never waits on a broker.
type Producer struct {
	producer sarama.AsyncProducer
	logger   *zap.Logger
	drained  chan struct{}
}

// NewProducer connects to the configured brokers.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	saramaCfg, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	async, err := sarama.NewAsyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logger.Info("kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("client_id", saramaCfg.ClientID),
		zap.String("record_topic", cfg.RecordTopic),
	)
	return newProducer(async, logger), nil
}

func newProducer(async sarama.AsyncProducer, logger *zap.Logger) *Producer {
	p := &Producer{producer: async, logger: logger, drained: make(chan struct{})}
	go p.drainErrors()
	return p
}

func newSaramaConfig(cfg config.KafkaSettings) (*sarama.Config, error) {
	acks, err := parseRequiredAcks(cfg.RequiredAcks)
	if err != nil {
		return nil, err
	}

	c := sarama.NewConfig()
	c.Version = sarama.V3_5_0_0
	if cfg.ClientID != "" {
		c.ClientID = cfg.ClientID
	}
	c.Producer.RequiredAcks = acks
	c.Producer.Compression = sarama.CompressionSnappy
	c.Producer.Flush.Frequency = 100 * time.Millisecond
	c.Producer.Flush.Messages = 100
	// Keys are kind/id, so all changes to one record share a partition.
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Producer.Retry.Max = 3
	c.Producer.Return.Successes = false
	c.Producer.Return.Errors = true
	c.Metadata.Retry.Max = 3
	c.Metadata.Retry.Backoff = 250 * time.Millisecond

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}
	return c, nil
}

func parseRequiredAcks(value string) (sarama.RequiredAcks, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "local":
		return sarama.WaitForLocal, nil
	case "all":
		return sarama.WaitForAll, nil
	case "none":
		return sarama.NoResponse, nil
	default:
		return 0, fmt.Errorf("kafka.required_acks must be none, local or all, got %q", value)
	}
}

func (p *Producer) drainErrors() {
	defer close(p.drained)
	for perr := range p.producer.Errors() {
		if perr == nil || perr.Msg == nil {
			continue
		}
		key := ""
		if perr.Msg.Key != nil {
			if b, err := perr.Msg.Key.Encode(); err == nil {
				key = string(b)
			}
		}
		p.logger.Error("kafka delivery failed",
			zap.String("topic", perr.Msg.Topic),
			zap.String("key", key),
			zap.Error(perr.Err),
		)
	}
}

// Send enqueues value on topic under key. It blocks only while the input
// buffer is full, and gives up when ctx ends.
func (p *Producer) Send(ctx context.Context, topic, key string, value []byte, headers ...sarama.RecordHeader) error {
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered messages and waits for the error drain to finish.
func (p *Producer) Close() error {
	p.logger.Info("closing kafka producer")
	err := p.producer.Close()
	<-p.drained
	if err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Astemirdum/room-booking/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const BookingTopic = "booking-events"

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
	Topic string   `yaml:"topic" envconfig:"KAFKA_TOPIC" default:"booking-events"`
}

func (cfg Config) Enabled() bool {
	return len(cfg.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
	Close() error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       *circuit_breaker.Breaker
	log      *zap.Logger
}

// NewPublisher sends JSON messages to topic. Calls fail fast with
// circuit_breaker.ErrOpenCB while the brokers keep failing.
func NewPublisher(producer sarama.SyncProducer, topic string, log *zap.Logger) Publisher {
	if topic == "" {
		topic = BookingTopic
	}
	log = log.Named("kafka")
	return &publisher{
		producer: producer,
		topic:    topic,
		cb: circuit_breaker.New(circuit_breaker.Settings{
			Window:        20,
			MinCalls:      10,
			FailureRatio:  0.5,
			OpenTimeout:   10 * time.Second,
			RecoveryCalls: 3,
			IsFailure:     brokerFailure,
		}),
		log: log,
	}
}

// brokerFailure reports whether err says the cluster is unhealthy. Rejections
// of a single message or a bad producer config do not count toward opening
// the breaker.
func brokerFailure(err error) bool {
	var cfgErr sarama.ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	var kerr sarama.KError
	if errors.As(err, &kerr) {
		switch kerr {
		case sarama.ErrMessageSizeTooLarge,
			sarama.ErrInvalidMessage,
			sarama.ErrInvalidMessageSize,
			sarama.ErrMessageSetSizeTooLarge:
			return false
		}
	}
	return true
}

func (p *publisher) Publish(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			if !brokerFailure(err) {
				p.log.Warn("message rejected", zap.String("topic", p.topic), zap.String("key", key), zap.Error(err))
			}
			return err
		}
		p.log.Debug("published", zap.String("topic", p.topic), zap.String("key", key),
			zap.Int32("partition", partition), zap.Int64("offset", offset))
		return nil
	})
}

func (p *publisher) Close() error {
	return p.producer.Close()
}

type nopPublisher struct{}

// NewNopPublisher is used when no brokers are configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

func (nopPublisher) Close() error { return nil }

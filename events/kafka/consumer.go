package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// JackpotUpdateEvent is a progressive pool movement published by
// whichever instance applied the contribution or reset.
type JackpotUpdateEvent struct {
	MachineID string    `json:"machine_id"`
	Delta     int64     `json:"delta"`
	NewValue  uint64    `json:"new_value"`
	Hit       bool      `json:"hit"`
	UpdatedAt time.Time `json:"timestamp"`
}

// JackpotCache is an in-memory cache of current pool values per
// machine, fed by the consumer.
type JackpotCache struct {
	mu     sync.RWMutex
	pools  map[string]uint64
	logger zerolog.Logger
}

const allMachinesKey = "*"

// NewJackpotCache creates an empty cache
func NewJackpotCache(logger zerolog.Logger) *JackpotCache {
	return &JackpotCache{
		pools:  make(map[string]uint64),
		logger: logger,
	}
}

// Get retrieves a pool value from the cache
func (jc *JackpotCache) Get(machineID string) (uint64, bool) {
	jc.mu.RLock()
	defer jc.mu.RUnlock()
	value, exists := jc.pools[machineID]
	return value, exists
}

// Set updates a pool value in the cache
func (jc *JackpotCache) Set(machineID string, value uint64) {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	jc.pools[machineID] = value
	jc.logger.Debug().
		Str("machine_id", machineID).
		Uint64("value", value).
		Msg("Jackpot cache updated")
}

// Subscription delivers jackpot updates for one machine to a client.
type Subscription struct {
	ID        string
	MachineID string
	Channel   chan JackpotUpdateEvent
}

// Consumer reads jackpot updates from the event bus and fans them out
// to cache and subscribers.
type Consumer struct {
	reader *kafka.Reader
	cache  *JackpotCache
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	subscribers map[string][]*Subscription
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig, cache *JackpotCache) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:      reader,
		cache:       cache,
		logger:      config.Logger,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[string][]*Subscription),
	}
}

// Start begins consuming messages
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error handling message")
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event JackpotUpdateEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	c.cache.Set(event.MachineID, event.NewValue)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range []string{event.MachineID, allMachinesKey} {
		for _, sub := range c.subscribers[key] {
			select {
			case sub.Channel <- event:
			default:
				c.logger.Warn().
					Str("sub_id", sub.ID).
					Str("machine_id", event.MachineID).
					Msg("Subscriber channel full, dropping event")
			}
		}
	}
	return nil
}

// Cache returns the jackpot cache
func (c *Consumer) Cache() *JackpotCache {
	return c.cache
}

// Subscribe subscribes to jackpot updates for one machine
func (c *Consumer) Subscribe(machineID string) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription{
		ID:        uuid.New().String(),
		MachineID: machineID,
		Channel:   make(chan JackpotUpdateEvent, 10),
	}
	c.subscribers[machineID] = append(c.subscribers[machineID], sub)

	c.logger.Debug().
		Str("machine_id", machineID).
		Str("sub_id", sub.ID).
		Msg("New subscription added")

	return sub
}

// SubscribeAll subscribes to updates for every machine
func (c *Consumer) SubscribeAll() *Subscription {
	return c.Subscribe(allMachinesKey)
}

// Unsubscribe removes a subscription
func (c *Consumer) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs, exists := c.subscribers[sub.MachineID]
	if !exists {
		return
	}

	newSubs := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		if s.ID == sub.ID {
			close(s.Channel)
			continue
		}
		newSubs = append(newSubs, s)
	}

	if len(newSubs) == 0 {
		delete(c.subscribers, sub.MachineID)
	} else {
		c.subscribers[sub.MachineID] = newSubs
	}

	c.logger.Debug().
		Str("machine_id", sub.MachineID).
		Str("sub_id", sub.ID).
		Msg("Subscription removed")
}

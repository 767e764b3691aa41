package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/namay10/DcaVault/internal/domain/model"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	BatchSize     int
	BatchTimeout  int
}

// EventProducer defines interface for publishing vault events
type EventProducer interface {
	PublishEvent(ctx context.Context, ev *model.VaultEvent) error
	Close() error
}

// EventConsumer defines interface for consuming vault events
type EventConsumer interface {
	Subscribe(ctx context.Context) (<-chan *model.VaultEvent, error)
	Commit(ctx context.Context, ev *model.VaultEvent) error
	Close() error
}

// KafkaProducer implements EventProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(config KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // Hash-based partitioning keeps one owner's events ordered
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer}
}

// PublishEvent sends a vault event to Kafka, keyed by owner so one vault's
// lifecycle lands on a single partition in order.
func (p *KafkaProducer) PublishEvent(ctx context.Context, ev *model.VaultEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Owner),
		Value: data,
		Time:  time.Now(),
	})
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer implements EventConsumer using Kafka
type KafkaConsumer struct {
	reader        *kafka.Reader
	topic         string
	pendingMsgs   map[string]kafka.Message // Map of event ID to Kafka message
	pendingMsgsMu sync.RWMutex             // Mutex to protect the pendingMsgs map
	batchSize     int                      // Number of messages to accumulate before batch commit
	batchTimeout  time.Duration            // Max time to wait before committing a batch
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(config KafkaConfig) *KafkaConsumer {
	// Disable auto-commit to allow explicit commits
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3,              // 10KB
		MaxBytes:       10e6,              // 10MB
		CommitInterval: 0,                 // Disable auto commit - we'll handle this manually
		StartOffset:    kafka.FirstOffset, // Start from oldest message if no offset is stored
	})

	return &KafkaConsumer{
		reader:       reader,
		topic:        config.Topic,
		pendingMsgs:  make(map[string]kafka.Message),
		batchSize:    config.BatchSize,
		batchTimeout: time.Duration(config.BatchTimeout) * time.Millisecond,
	}
}

// Subscribe returns a channel of vault events from Kafka
func (c *KafkaConsumer) Subscribe(ctx context.Context) (<-chan *model.VaultEvent, error) {
	eventCh := make(chan *model.VaultEvent, 1000) // Buffer to handle bursts

	// Start a background goroutine for batch commits
	go c.startBatchCommitter(ctx)

	// Start the main consumer goroutine
	go func() {
		defer close(eventCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil { // Only log if not due to context cancellation
						log.Printf("Error fetching message: %v", err)
					}
					return
				}

				var ev model.VaultEvent
				if err := json.Unmarshal(msg.Value, &ev); err != nil {
					log.Printf("Error unmarshalling vault event: %v", err)
					// Commit bad messages to avoid getting stuck
					_ = c.reader.CommitMessages(ctx, msg)
					continue
				}

				// Make sure we have an ID for tracking
				if ev.ID == "" {
					ev.ID = fmt.Sprintf("%s-%d-%d", ev.Owner, msg.Partition, msg.Offset)
				}

				// Store message for later commit
				c.pendingMsgsMu.Lock()
				c.pendingMsgs[ev.ID] = msg
				pendingCount := len(c.pendingMsgs)
				c.pendingMsgsMu.Unlock()

				if pendingCount > c.batchSize*10 {
					log.Printf("Warning: Large number of uncommitted messages: %d, batchSize is %d", pendingCount, c.batchSize)
				}

				select {
				case <-ctx.Done():
					return
				case eventCh <- &ev:
					// Actual commit happens in Commit() or the batch committer
				}
			}
		}
	}()

	return eventCh, nil
}

// startBatchCommitter runs a background process that periodically commits messages in batches
func (c *KafkaConsumer) startBatchCommitter(ctx context.Context) {
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final commit before shutting down
			c.commitAllPending(context.Background()) // New context since the original is canceled
			return
		case <-ticker.C:
			c.commitAllPending(ctx)
		}
	}
}

// commitAllPending commits all pending messages
func (c *KafkaConsumer) commitAllPending(ctx context.Context) {
	c.pendingMsgsMu.Lock()
	defer c.pendingMsgsMu.Unlock()

	if len(c.pendingMsgs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(c.pendingMsgs))
	for _, msg := range c.pendingMsgs {
		msgs = append(msgs, msg)
	}

	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		log.Printf("Error committing batch of %d messages: %v", len(msgs), err)
		return
	}

	c.pendingMsgs = make(map[string]kafka.Message)
}

// Commit acknowledges that a vault event has been processed
func (c *KafkaConsumer) Commit(ctx context.Context, ev *model.VaultEvent) error {
	if ev == nil || ev.ID == "" {
		return fmt.Errorf("cannot commit nil event or event with empty ID")
	}

	c.pendingMsgsMu.Lock()
	msg, exists := c.pendingMsgs[ev.ID]
	if !exists {
		c.pendingMsgsMu.Unlock()
		return fmt.Errorf("message for event %s not found in pending messages", ev.ID)
	}

	pendingCount := len(c.pendingMsgs)
	shouldBatchCommit := pendingCount >= c.batchSize

	if !shouldBatchCommit {
		delete(c.pendingMsgs, ev.ID)
		c.pendingMsgsMu.Unlock()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit message for event %s: %w", ev.ID, err)
		}
		return nil
	}

	c.pendingMsgsMu.Unlock()
	c.commitAllPending(ctx)
	return nil
}

// Close closes the consumer
func (c *KafkaConsumer) Close() error {
	// Final commit of any pending messages
	c.commitAllPending(context.Background())
	return c.reader.Close()
}

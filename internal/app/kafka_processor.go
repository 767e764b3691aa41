package app

import (
	"context"
	"log"
	"time"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
	"github.com/namay10/DcaVault/internal/infrastructure/queue"
)

// KafkaEventProcessor is the indexer-side pipeline: it consumes vault
// events from the Kafka topic (published by a vault service instance) and
// materializes them into the durable event log. Running it in a separate
// process decouples audit indexing from the vault core.
type KafkaEventProcessor struct {
	Consumer      queue.EventConsumer
	Events        repository.EventPersistence
	DedupCache    map[string]struct{}
	cleanupTicker *time.Ticker
}

func NewKafkaEventProcessor(consumer queue.EventConsumer, events repository.EventPersistence) *KafkaEventProcessor {
	return &KafkaEventProcessor{
		Consumer:      consumer,
		Events:        events,
		DedupCache:    make(map[string]struct{}),
		cleanupTicker: time.NewTicker(1 * time.Hour),
	}
}

// Run starts the Kafka event processor
func (p *KafkaEventProcessor) Run(ctx context.Context) error {
	eventCh, err := p.Consumer.Subscribe(ctx)
	if err != nil {
		return err
	}
	go p.cleanupDedupCache(ctx)

	for {
		select {
		case <-ctx.Done():
			p.cleanupTicker.Stop()
			return ctx.Err()
		case ev := <-eventCh:
			if ev == nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			p.processEvent(ctx, ev)

			if err := p.Consumer.Commit(ctx, ev); err != nil && ctx.Err() == nil {
				log.Printf("Failed to commit event: %v", err)
			}
		}
	}
}

// processEvent handles a single event with deduplication
func (p *KafkaEventProcessor) processEvent(ctx context.Context, ev *model.VaultEvent) {
	if _, exists := p.DedupCache[ev.ID]; exists {
		return
	}
	p.DedupCache[ev.ID] = struct{}{}

	if ctx.Err() != nil {
		return
	}

	if p.Events != nil {
		if err := p.Events.SaveEvent(ctx, ev); err != nil {
			log.Printf("Failed to index event %s: %v", ev.ID, err)
		}
	}
}

// cleanupDedupCache periodically resets the deduplication cache
func (p *KafkaEventProcessor) cleanupDedupCache(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.cleanupTicker.C:
			p.DedupCache = make(map[string]struct{})
			log.Println("Deduplication cache cleaned up")
		}
	}
}

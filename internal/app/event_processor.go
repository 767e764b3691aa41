package app

import (
	"context"
	"errors"
	"log"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
	"github.com/namay10/DcaVault/internal/domain/useCases"
)

// ErrContextCancelled is returned when the context is cancelled during processing
var ErrContextCancelled = errors.New("context cancelled during processing")

// Processor defines the common interface for the channel and Kafka event processors
type Processor interface {
	Run(ctx context.Context) error
}

// EventProcessor drains the vault service's event channel and fans each
// event out: durable audit log, Kafka bus, vault snapshot cache, WebSocket
// broadcast. The core never waits on any of this; a failed sink is logged
// and processing continues.
type EventProcessor struct {
	EventCh      chan *model.VaultEvent
	VaultService useCases.VaultService
	Events       repository.EventPersistence // optional
	Cache        repository.VaultCache       // optional
	Snapshots    repository.VaultPersistence // optional
	Producer     EventPublisher              // optional
	Broadcaster  useCases.Broadcaster
	DedupCache   map[string]struct{} // simple in-memory deduplication, replace with Redis for HA
}

// EventPublisher is the subset of the Kafka producer the processor needs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *model.VaultEvent) error
}

func NewEventProcessor(
	eventCh chan *model.VaultEvent,
	vaultService useCases.VaultService,
	events repository.EventPersistence,
	cache repository.VaultCache,
	snapshots repository.VaultPersistence,
	producer EventPublisher,
	broadcaster useCases.Broadcaster,
) *EventProcessor {
	return &EventProcessor{
		EventCh:      eventCh,
		VaultService: vaultService,
		Events:       events,
		Cache:        cache,
		Snapshots:    snapshots,
		Producer:     producer,
		Broadcaster:  broadcaster,
		DedupCache:   make(map[string]struct{}),
	}
}

func (p *EventProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.EventCh:
			if err := p.processEvent(ctx, ev); err != nil {
				if errors.Is(err, ErrContextCancelled) {
					log.Println("Context cancelled, stopping event processor")
					return ctx.Err()
				}
				// Other errors are just logged but processing continues
				log.Printf("Error processing vault event: %v", err)
			}
		}
	}
}

// processEvent handles a single vault event with proper context cancellation checks
func (p *EventProcessor) processEvent(ctx context.Context, ev *model.VaultEvent) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}
	if ev == nil {
		return nil
	}

	// Deduplication (replace with Redis for distributed setup)
	if _, exists := p.DedupCache[ev.ID]; exists {
		return nil
	}
	p.DedupCache[ev.ID] = struct{}{}

	// Durable audit log
	if p.Events != nil {
		if err := p.Events.SaveEvent(ctx, ev); err != nil {
			log.Printf("Failed to persist event %s: %v", ev.ID, err)
		}
	}

	// Event bus
	if p.Producer != nil {
		if err := p.Producer.PublishEvent(ctx, ev); err != nil {
			log.Printf("Failed to publish event %s: %v", ev.ID, err)
		}
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	// Keep the snapshot tiers in step with the transition
	if p.Cache != nil || p.Snapshots != nil {
		p.refreshSnapshots(ctx, ev)
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	p.Broadcaster.BroadcastEvent(ev)
	return nil
}

// refreshSnapshots updates the Redis cache and appends to the durable
// snapshot history. A withdrawal only drops the cached entry; the history
// is append-only and keeps the record's final pre-withdraw state.
func (p *EventProcessor) refreshSnapshots(ctx context.Context, ev *model.VaultEvent) {
	if ev.Kind == model.EventWithdraw {
		if p.Cache != nil {
			if err := p.Cache.DeleteVault(ctx, ev.Owner); err != nil {
				log.Printf("Failed to drop cached vault for %s: %v", ev.Owner, err)
			}
		}
		return
	}
	vault, err := p.VaultService.GetVault(ctx, ev.Owner)
	if err != nil {
		log.Printf("Failed to load vault for snapshot refresh: %v", err)
		return
	}
	if p.Cache != nil {
		if err := p.Cache.SaveVault(ctx, vault); err != nil {
			log.Printf("Failed to cache vault for %s: %v", ev.Owner, err)
		}
	}
	if p.Snapshots != nil {
		if err := p.Snapshots.SaveVault(ctx, vault); err != nil {
			log.Printf("Failed to persist vault snapshot for %s: %v", ev.Owner, err)
		}
	}
}

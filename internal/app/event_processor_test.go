package app_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/namay10/DcaVault/internal/app"
	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/service"
	"github.com/namay10/DcaVault/internal/infrastructure/memory"
	"github.com/namay10/DcaVault/internal/infrastructure/swapsim"
)

// MockBroadcaster implements the Broadcaster interface for testing
type MockBroadcaster struct {
	broadcasts []*model.VaultEvent
	mu         sync.Mutex
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{
		broadcasts: make([]*model.VaultEvent, 0),
	}
}

func (b *MockBroadcaster) BroadcastEvent(ev *model.VaultEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasts = append(b.broadcasts, ev)
}

func (b *MockBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {}
}

func (b *MockBroadcaster) GetBroadcasts() []*model.VaultEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*model.VaultEvent(nil), b.broadcasts...)
}

// MockEventStore records persisted events in memory
type MockEventStore struct {
	events []*model.VaultEvent
	mu     sync.Mutex
}

func (s *MockEventStore) SaveEvent(ctx context.Context, ev *model.VaultEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *MockEventStore) GetEventsSince(ctx context.Context, since int64) ([]*model.VaultEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.VaultEvent(nil), s.events...), nil
}

func (s *MockEventStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// MockVaultCache records snapshot writes and deletions
type MockVaultCache struct {
	saved   map[string]*model.VaultRecord
	deleted []string
	mu      sync.Mutex
}

func NewMockVaultCache() *MockVaultCache {
	return &MockVaultCache{saved: make(map[string]*model.VaultRecord)}
}

func (c *MockVaultCache) SaveVault(ctx context.Context, v *model.VaultRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved[v.Owner] = v
	return nil
}

func (c *MockVaultCache) GetVault(ctx context.Context, owner string) (*model.VaultRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved[owner], nil
}

func (c *MockVaultCache) GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.VaultRecord, 0, len(c.saved))
	for _, v := range c.saved {
		out = append(out, v)
	}
	return out, nil
}

func (c *MockVaultCache) DeleteVault(ctx context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.saved, owner)
	c.deleted = append(c.deleted, owner)
	return nil
}

func (c *MockVaultCache) Deleted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

// MockSnapshotStore records the append-only snapshot history
type MockSnapshotStore struct {
	snapshots []*model.VaultRecord
	mu        sync.Mutex
}

func (s *MockSnapshotStore) SaveVault(ctx context.Context, v *model.VaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, v)
	return nil
}

func (s *MockSnapshotStore) GetVault(ctx context.Context, owner string) (*model.VaultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].Owner == owner {
			return s.snapshots[i], nil
		}
	}
	return nil, model.ErrVaultNotFound
}

func (s *MockSnapshotStore) GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.VaultRecord(nil), s.snapshots...), nil
}

func (s *MockSnapshotStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

func TestEventProcessor(t *testing.T) {
	// Setup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := memory.NewLedger()
	vaults := memory.NewVaultRepository()
	engine := swapsim.NewEngine(ledger)
	eventCh := make(chan *model.VaultEvent, 10)
	vaultService := service.NewDcaVaultService(vaults, ledger, engine, eventCh, swapsim.JupiterProgramID, 0)

	clock := int64(1_700_000_000)
	vaultService.SetClock(func() int64 { return clock })

	broadcaster := NewMockBroadcaster()
	events := &MockEventStore{}
	cache := NewMockVaultCache()
	snapshots := &MockSnapshotStore{}

	// Create processor (no Kafka producer in this test)
	processor := app.NewEventProcessor(eventCh, vaultService, events, cache, snapshots, nil, broadcaster)

	// Start processor in background
	go processor.Run(ctx)

	// Drive a full vault lifecycle: create, one slice, withdraw
	if err := ledger.Deposit(ctx, "alice", model.AssetUSDC, 1000); err != nil {
		t.Fatalf("failed to fund owner: %v", err)
	}
	vault, err := vaultService.Initialize(ctx, "alice", 1000, 10, 60)
	if err != nil {
		t.Fatalf("failed to initialize vault: %v", err)
	}
	clock += 60
	ix := swapsim.BuildSwapInstruction(vault.CustodyAddress, "alice", 100, 1_000_000)
	if _, err := vaultService.ExecuteSwap(ctx, "alice", "alice", 100, ix); err != nil {
		t.Fatalf("failed to execute swap: %v", err)
	}

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Both events made the audit log and the broadcast channel
	if events.Count() != 2 {
		t.Errorf("expected 2 persisted events, got %d", events.Count())
	}
	if got := len(broadcaster.GetBroadcasts()); got != 2 {
		t.Errorf("expected 2 broadcasts, got %d", got)
	}

	// The snapshot cache tracks the latest transition
	cached, _ := cache.GetVault(ctx, "alice")
	if cached == nil {
		t.Fatal("expected a cached vault snapshot")
	}
	if cached.PeriodsCompleted != 1 || cached.CurrBalance != 900 {
		t.Errorf("cache holds a stale snapshot: %+v", cached)
	}

	// The durable history got one snapshot per non-withdraw transition
	if snapshots.Count() != 2 {
		t.Errorf("expected 2 persisted snapshots, got %d", snapshots.Count())
	}
	latest, err := snapshots.GetVault(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to read snapshot history: %v", err)
	}
	if latest.PeriodsCompleted != 1 || latest.CurrBalance != 900 {
		t.Errorf("history holds a stale snapshot: %+v", latest)
	}

	// Test deduplication: re-deliver an already-seen event
	persisted, _ := events.GetEventsSince(ctx, 0)
	eventCh <- persisted[0]
	time.Sleep(100 * time.Millisecond)
	if events.Count() != 2 {
		t.Errorf("duplication prevention failed: expected 2 persisted events, got %d", events.Count())
	}

	// Withdrawal drops the cached snapshot
	if _, _, err := vaultService.Withdraw(ctx, "alice", "alice"); err != nil {
		t.Fatalf("failed to withdraw: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if cached, _ := cache.GetVault(ctx, "alice"); cached != nil {
		t.Error("expected cached snapshot dropped after withdraw")
	}
	deleted := cache.Deleted()
	if len(deleted) != 1 || deleted[0] != "alice" {
		t.Errorf("expected one cache deletion for alice, got %v", deleted)
	}
	if events.Count() != 3 {
		t.Errorf("expected 3 persisted events after withdraw, got %d", events.Count())
	}
	// History is append-only: the withdrawal adds no snapshot
	if snapshots.Count() != 2 {
		t.Errorf("expected snapshot history unchanged at 2, got %d", snapshots.Count())
	}
}

func TestEventProcessorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	eventCh := make(chan *model.VaultEvent, 1)
	ledger := memory.NewLedger()
	vaults := memory.NewVaultRepository()
	vaultService := service.NewDcaVaultService(vaults, ledger, swapsim.NewEngine(ledger), eventCh, swapsim.JupiterProgramID, 0)
	processor := app.NewEventProcessor(eventCh, vaultService, nil, nil, nil, nil, NewMockBroadcaster())

	done := make(chan error, 1)
	go func() {
		done <- processor.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected a context error from Run")
		}
	case <-time.After(time.Second):
		t.Fatal("processor did not stop after cancel")
	}
}

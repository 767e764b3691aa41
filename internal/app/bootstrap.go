package app

import (
	"context"
	"log"

	"github.com/namay10/DcaVault/config"
	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
	"github.com/namay10/DcaVault/internal/domain/service"
	ws "github.com/namay10/DcaVault/internal/handlers/websocket"
	redisrepo "github.com/namay10/DcaVault/internal/infrastructure/cache"
	"github.com/namay10/DcaVault/internal/infrastructure/memory"
	"github.com/namay10/DcaVault/internal/infrastructure/queue"
	chrepo "github.com/namay10/DcaVault/internal/infrastructure/storage"
	"github.com/namay10/DcaVault/internal/infrastructure/swapsim"
)

// AppContext holds all app dependencies
type AppContext struct {
	Config         *config.Config
	Ledger         repository.Ledger
	VaultService   *service.DcaVaultService
	Broadcaster    *ws.WebSocketBroadcaster
	EventProcessor Processor
	KafkaProducer  *queue.KafkaProducer
	KafkaConsumer  *queue.KafkaConsumer
	EventCh        chan *model.VaultEvent
}

// NewApp initializes the app context with all dependencies. Redis,
// ClickHouse and Kafka are optional tiers: when one is unreachable the
// vault keeps running on the in-memory core and the tier is skipped.
func NewApp(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}
	log.Println("Configuration loaded")

	// Core state: in-memory ledger and vault store
	ledger := memory.NewLedger()
	vaults := memory.NewVaultRepository()
	app.Ledger = ledger

	// Simulated external swap service
	engine := swapsim.NewEngine(ledger)

	// Event channel feeding the observability pipeline
	app.EventCh = make(chan *model.VaultEvent, cfg.EventBufferSize)

	app.VaultService = service.NewDcaVaultService(
		vaults, ledger, engine, app.EventCh, cfg.SwapProgramID, cfg.EarlyExitFeeBps,
	)
	log.Println("Vault service initialized")

	// Cache tier (Redis)
	var vaultCache repository.VaultCache
	redisRepo := redisrepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisRepo.Ping(ctx); err != nil {
		log.Printf("Warning: Redis unavailable: %v. Continuing without snapshot cache.", err)
	} else {
		vaultCache = redisRepo
		log.Println("Redis snapshot cache initialized")
	}

	// Durable audit tier (ClickHouse): event log plus snapshot history
	var eventStore repository.EventPersistence
	var snapshotStore repository.VaultPersistence
	chConfig := chrepo.ClickHouseConfig{
		Addr:     cfg.ClickhouseAddr,
		Username: cfg.ClickhouseUsername,
		Password: cfg.ClickhousePassword,
		Timeout:  cfg.ClickhouseTimeout,
	}
	clickhouseRepo, err := chrepo.NewClickHouseRepository(chConfig)
	if err != nil {
		log.Printf("Warning: Failed to connect to ClickHouse: %v. Continuing without audit log.", err)
	} else {
		eventStore = clickhouseRepo
		snapshotStore = clickhouseRepo
		log.Println("ClickHouse audit storage initialized")
	}

	// Event bus (Kafka)
	kafkaConfig := queue.KafkaConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		BatchSize:     cfg.KafkaBatchSize,
		BatchTimeout:  cfg.KafkaBatchTimeout,
	}
	var producer EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		app.KafkaProducer = queue.NewKafkaProducer(kafkaConfig)
		producer = app.KafkaProducer
		log.Println("Kafka producer initialized")
	}

	app.Broadcaster = ws.NewWebSocketBroadcaster()

	if cfg.KafkaIndexer {
		// Indexer mode: consume events from the topic instead of the
		// in-process channel and materialize the audit log only.
		app.KafkaConsumer = queue.NewKafkaConsumer(kafkaConfig)
		app.EventProcessor = NewKafkaEventProcessor(app.KafkaConsumer, eventStore)
		log.Println("Kafka indexer processor initialized")
	} else {
		app.EventProcessor = NewEventProcessor(
			app.EventCh, app.VaultService, eventStore, vaultCache, snapshotStore, producer, app.Broadcaster,
		)
		log.Println("Direct channel event processor initialized")
	}

	return app, nil
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.KafkaConsumer != nil {
		log.Println("Closing Kafka consumer...")
		if err := a.KafkaConsumer.Close(); err != nil {
			log.Printf("Error closing Kafka consumer: %v", err)
		}
	}

	if a.KafkaProducer != nil {
		log.Println("Closing Kafka producer...")
		if err := a.KafkaProducer.Close(); err != nil {
			log.Printf("Error closing Kafka producer: %v", err)
		}
	}

	if a.EventCh != nil {
		log.Println("Closing event channel...")
		close(a.EventCh)
	}

	log.Println("All resources cleaned up")
}

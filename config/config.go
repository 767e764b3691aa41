package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all app configuration
type Config struct {
	// Server
	HTTPPort string

	// Vault
	SwapProgramID   string
	EarlyExitFeeBps uint64

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClickHouse
	ClickhouseAddr     string
	ClickhouseUsername string
	ClickhousePassword string
	ClickhouseTimeout  int

	// Kafka
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaConsumerGroup string
	KafkaBatchSize     int
	KafkaBatchTimeout  int // milliseconds
	KafkaIndexer       bool

	// App settings
	EventBufferSize int
	Demo            bool
	Debug           bool
}

// jupiterProgramID is the default external swap-service identity
// (same for mainnet and devnet).
const jupiterProgramID = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"

// LoadConfig loads configuration from environment variables, with optional .env file
func LoadConfig() *Config {
	// Load .env file if present; environment-only setups are fine too
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := &Config{
		// Server
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		// Vault
		SwapProgramID:   getEnv("SWAP_PROGRAM_ID", jupiterProgramID),
		EarlyExitFeeBps: uint64(getEnvAsInt("EARLY_EXIT_FEE_BPS", 50)),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// ClickHouse
		ClickhouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickhouseUsername: getEnv("CLICKHOUSE_USERNAME", ""),
		ClickhousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickhouseTimeout:  getEnvAsInt("CLICKHOUSE_TIMEOUT", 10),

		// Kafka
		KafkaBrokers:       getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}, ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "vault-events"),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "dcavault-indexer"),
		KafkaBatchSize:     getEnvAsInt("KAFKA_BATCH_SIZE", 500),
		KafkaBatchTimeout:  getEnvAsInt("KAFKA_BATCH_TIMEOUT", 3000),
		KafkaIndexer:       getEnvAsBool("KAFKA_INDEXER", false),

		// App settings
		EventBufferSize: getEnvAsInt("EVENT_BUFFER_SIZE", 10000),
		Demo:            getEnvAsBool("DEMO", false),
		Debug:           getEnvAsBool("DEBUG", false),
	}

	return cfg
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, sep)
}

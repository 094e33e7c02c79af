package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	DBName string
	JWTKey string

	LedgerRPCURL    string // JSON-RPC endpoint of the certificate ledger node
	ContractAddress string // certificate registry contract address
	AdminAddress    string // platform administrator wallet address

	TimelockSeconds  int64 // burn request timelock for non-privileged actors
	LookbackBlocks   int64 // historical window for activity backfill
	PollIntervalSecs int   // ledger block poll cadence
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		DBName: getEnv("DB_NAME", "file::memory:?cache=shared"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		LedgerRPCURL:    getEnv("LEDGER_RPC_URL", "http://localhost:8545"),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		AdminAddress:    getEnv("ADMIN_ADDRESS", ""),

		TimelockSeconds:  getEnvInt64("BURN_TIMELOCK_SECONDS", 86400),
		LookbackBlocks:   getEnvInt64("LOOKBACK_BLOCKS", 1000),
		PollIntervalSecs: getEnvInt("POLL_INTERVAL_SECONDS", 5),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.ContractAddress == "" {
		log.Println("Warning: CONTRACT_ADDRESS is not set. Ledger calls will fail.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvInt64 retrieves an environment variable as an int64 or returns the default value
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Error converting environment variable %s to int64: %v", key, err)
		return defaultValue
	}
	return intValue
}

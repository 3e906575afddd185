package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

const day = 24 * time.Hour

// Config holds all runtime configuration for the exchange simulation.
type Config struct {
	MarketName      string
	LogLevel        string
	AuditDir        string
	AuditMaxSizeMB  int
	StartingCapital float64
	LockMaxAgeDays  int
	UniqueTokens    bool
	SimDays         int
	SimStepInterval time.Duration
	TraderCapital   float64
	Seed            uint64
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	marketName := getStr("MARKET_NAME", "SGX")

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	auditDir := getStr("AUDIT_DIR", ".")

	auditMaxSize, err := getInt("AUDIT_MAX_SIZE_MB", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_MAX_SIZE_MB: %w", err)
	}
	if auditMaxSize < 1 {
		return nil, fmt.Errorf("invalid AUDIT_MAX_SIZE_MB: %d, must be at least 1", auditMaxSize)
	}

	startingCapital, err := getFloat("STARTING_CAPITAL", 1_000_000)
	if err != nil {
		return nil, fmt.Errorf("invalid STARTING_CAPITAL: %w", err)
	}
	if !(startingCapital >= 0) || math.IsInf(startingCapital, 0) {
		return nil, fmt.Errorf("invalid STARTING_CAPITAL: %v, must be finite and not negative", startingCapital)
	}

	lockMaxAge, err := getInt("LOCK_MAX_AGE_DAYS", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_MAX_AGE_DAYS: %w", err)
	}
	if lockMaxAge < 1 {
		return nil, fmt.Errorf("invalid LOCK_MAX_AGE_DAYS: %d, must be at least 1", lockMaxAge)
	}

	uniqueTokens, err := getBool("UNIQUE_TOKENS", false)
	if err != nil {
		return nil, fmt.Errorf("invalid UNIQUE_TOKENS: %w", err)
	}

	simDays, err := getInt("SIM_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_DAYS: %w", err)
	}
	if simDays < 1 {
		return nil, fmt.Errorf("invalid SIM_DAYS: %d, must be at least 1", simDays)
	}

	stepInterval, err := getDuration("SIM_STEP_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_STEP_INTERVAL: %w", err)
	}
	if stepInterval < time.Minute || stepInterval > day {
		return nil, fmt.Errorf("invalid SIM_STEP_INTERVAL: %v, must be between 1m and 24h", stepInterval)
	}

	traderCapital, err := getFloat("TRADER_CAPITAL", 10_000)
	if err != nil {
		return nil, fmt.Errorf("invalid TRADER_CAPITAL: %w", err)
	}
	if !(traderCapital > 0) || math.IsInf(traderCapital, 0) {
		return nil, fmt.Errorf("invalid TRADER_CAPITAL: %v, must be finite and positive", traderCapital)
	}

	seed, err := getUint("SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED: %w", err)
	}

	return &Config{
		MarketName:      marketName,
		LogLevel:        logLevel,
		AuditDir:        auditDir,
		AuditMaxSizeMB:  auditMaxSize,
		StartingCapital: startingCapital,
		LockMaxAgeDays:  lockMaxAge,
		UniqueTokens:    uniqueTokens,
		SimDays:         simDays,
		SimStepInterval: stepInterval,
		TraderCapital:   traderCapital,
		Seed:            seed,
	}, nil
}

// StepsPerDay returns how many times a trader acts per simulated day.
func (c *Config) StepsPerDay() int {
	return int(day / c.SimStepInterval)
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getUint(key string, defaultVal uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

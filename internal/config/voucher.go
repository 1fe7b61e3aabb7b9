package config

import (
	"os"
	"strconv"
	"time"
)

type VoucherConfig struct {
	MinPurchaseCents int64
	MaxPurchaseCents int64
	MaxSplitCount    int
	SplitTimeout     time.Duration
	PendingSplitTTL  time.Duration
	UnknownSplitTTL  time.Duration
	RateLimitMax     int
	RateLimitWindow  time.Duration
	HistoryPageSize  int
	ServiceName      string
}

func LoadVoucherConfig() *VoucherConfig {
	return &VoucherConfig{
		MinPurchaseCents: int64(getEnvAsInt("VOUCHER_MIN_PURCHASE_CENTS", 200)),
		MaxPurchaseCents: int64(getEnvAsInt("VOUCHER_MAX_PURCHASE_CENTS", 200000)),
		MaxSplitCount:    getEnvAsInt("VOUCHER_MAX_SPLIT_COUNT", 100),
		SplitTimeout:     getEnvAsDuration("VOUCHER_SPLIT_TIMEOUT", 30*time.Second),
		PendingSplitTTL:  getEnvAsDuration("VOUCHER_PENDING_SPLIT_TTL", 2*time.Minute),
		UnknownSplitTTL:  getEnvAsDuration("VOUCHER_UNKNOWN_SPLIT_TTL", 24*time.Hour),
		RateLimitMax:     getEnvAsInt("VOUCHER_RATE_LIMIT_MAX", 30),
		RateLimitWindow:  getEnvAsDuration("VOUCHER_RATE_LIMIT_WINDOW", time.Minute),
		HistoryPageSize:  getEnvAsInt("VOUCHER_HISTORY_PAGE_SIZE", 20),
		ServiceName:      getEnv("SERVICE_NAME", "voucher-split"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=pos_payment_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultChannelID = "PosApp"
const defaultChannelKey = "PosChannelKey001"
const defaultBankOrganisation = "CashManagerBank"
const defaultCheckTokenSecret = "pos-check-secret-dev-only"
const defaultLedgerTimeoutSeconds = 10

// StoreMemory as DATABASE_DSN selects the in-memory ledger store instead of
// postgres. Meant for local development.
const StoreMemory = "memory"

type Config struct {
	DatabaseDSN      string
	MigrationsDir    string
	HTTPAddr         string
	ChannelID        string
	ChannelKey       string
	BankOrganisation string
	CheckTokenSecret string
	KafkaBrokers     []string
	LedgerTimeout    time.Duration
}

func (c Config) UseMemoryStore() bool {
	return strings.EqualFold(c.DatabaseDSN, StoreMemory)
}

func Load() (Config, error) {
	_ = godotenv.Load()

	conn := envOrDefault("DATABASE_DSN", defaultConnectionString)
	if !strings.EqualFold(conn, StoreMemory) {
		conn = normalizeConnectionString(conn)
	}

	timeoutSeconds := defaultLedgerTimeoutSeconds
	if raw := strings.TrimSpace(os.Getenv("LEDGER_TIMEOUT_SECONDS")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 {
			timeoutSeconds = parsed
		}
	}

	var brokers []string
	for _, broker := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b := strings.TrimSpace(broker); b != "" {
			brokers = append(brokers, b)
		}
	}

	return Config{
		DatabaseDSN:      conn,
		MigrationsDir:    filepath.Join("src", "migrations"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		ChannelID:        envOrDefault("CHANNEL_ID", defaultChannelID),
		ChannelKey:       envOrDefault("CHANNEL_KEY", defaultChannelKey),
		BankOrganisation: envOrDefault("BANK_ORGANISATION", defaultBankOrganisation),
		CheckTokenSecret: envOrDefault("CHECK_TOKEN_SECRET", defaultCheckTokenSecret),
		KafkaBrokers:     brokers,
		LedgerTimeout:    time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}

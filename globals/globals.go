package globals

import (
	"context"
	"os"

	"github.com/joho/godotenv"
)

func init() {
	// main also loads .env; loading here keeps the package-level vars
	// correct when globals is pulled in before main runs.
	_ = godotenv.Load()
}

var (
	JwtSecret       = []byte(envOr("JWT_SECRET", "change-me"))
	DefaultCurrency = envOr("DEFAULT_CURRENCY", "USD")
)

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"

var Ctx = context.Background()

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

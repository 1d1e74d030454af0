package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/shopspring/decimal"
)

// ConfigForTests applies .env.test from the project root, when present, to
// the test's environment and returns the parsed configuration.
func ConfigForTests(t *testing.T) *config.Config {
	t.Helper()

	if root, ok := projectRoot(); ok {
		if env, err := godotenv.Read(filepath.Join(root, ".env.test")); err == nil {
			for key, value := range env {
				t.Setenv(key, value)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load test configuration: %v", err)
	}
	return cfg
}

func projectRoot() (string, bool) {
	path, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path, true
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", false
		}
		path = parent
	}
}

// Investment builds a domain.Investment from literal values.
func Investment(id, userID, amount, roi string, createdAt time.Time) domain.Investment {
	return domain.Investment{
		ID:        id,
		UserID:    userID,
		Amount:    decimal.RequireFromString(amount),
		ROI:       decimal.RequireFromString(roi),
		CreatedAt: createdAt,
	}
}

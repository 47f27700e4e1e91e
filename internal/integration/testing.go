package integration

import (
	"context"
	"os"
	"testing"
	"time"
)

// Config holds integration test configuration from environment.
type Config struct {
	MongoDBURI  string
	GitHubToken string
	TestTimeout time.Duration
}

// LoadConfig loads integration test configuration from environment.
func LoadConfig() *Config {
	return &Config{
		MongoDBURI:  os.Getenv("MONGODB_TEST_URI"),
		GitHubToken: os.Getenv("GITHUB_TEST_TOKEN"),
		TestTimeout: 60 * time.Second,
	}
}

// SkipIfNoBackend skips the test when the backend's environment variable
// is not set.
func SkipIfNoBackend(t *testing.T, value, name string) {
	t.Helper()
	if value == "" {
		t.Skipf("Skipping %s integration test: environment not configured", name)
	}
}

// SkipIfShort skips integration tests in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// NewTestContext creates a context with timeout for integration tests.
func NewTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

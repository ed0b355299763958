// Package testutil provides shared test helpers for config files, metric snapshots and conversation fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/metrics"
)

// ConfigOption configures optional fields when creating a config fixture.
type ConfigOption func(*configFixture)

type configFixture struct {
	port     int
	snapshot *metrics.Snapshot
}

// WithServerPort overrides the default port 18080.
func WithServerPort(port int) ConfigOption {
	return func(cfg *configFixture) {
		cfg.port = port
	}
}

// WithSnapshot writes s to the snapshot file the config points at.
func WithSnapshot(s metrics.Snapshot) ConfigOption {
	return func(cfg *configFixture) {
		cfg.snapshot = &s
	}
}

// SetupTestConfig creates a config file using in-memory storage and a metrics
// snapshot path inside tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string, opts ...ConfigOption) string {
	t.Helper()

	cfg := configFixture{port: 18080}
	for _, opt := range opts {
		opt(&cfg)
	}

	snapshotPath := filepath.Join(tmpDir, "metrics.yml")
	if cfg.snapshot != nil {
		data, err := yaml.Marshal(cfg.snapshot)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(snapshotPath, data, 0644))
	}

	configContent := fmt.Sprintf(`server:
  port: %d
storage:
  driver: memory
responder:
  timeout: 2s
  history_size: 4
  max_retry_attempts: 0
metrics:
  snapshot_path: %s
`, cfg.port, snapshotPath)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupBrokenConfig creates a config file that fails validation.
func SetupBrokenConfig(t *testing.T, tmpDir string) string {
	t.Helper()
	cfgPath := filepath.Join(tmpDir, "broken.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  driver: sqlite\n"), 0644))
	return cfgPath
}

// SeedConversation creates a conversation and appends messages to it in order.
// The ConversationID of each message is filled in.
func SeedConversation(t *testing.T, repo conversation.Repository, title string, messages ...conversation.NewMessage) *conversation.Conversation {
	t.Helper()

	ctx := context.Background()
	c, err := repo.CreateConversation(ctx, conversation.NewConversation{Title: title})
	require.NoError(t, err)
	for _, m := range messages {
		m.ConversationID = c.ID
		_, err := repo.AppendMessage(ctx, m)
		require.NoError(t, err)
	}

	c, err = repo.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	return c
}

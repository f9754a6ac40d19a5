package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithOTelLogs_KeepsOriginalCore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := WithOTelLogs(zap.New(core), "stockledger-test")

	logger.Info("ledger applied", zap.String("tenant_id", "t-1"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "ledger applied", entry.Message)
	assert.Equal(t, "t-1", entry.ContextMap()["tenant_id"])
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}

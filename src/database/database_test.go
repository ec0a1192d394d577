package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/config"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/database"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
)

func TestOpenPerformanceStore_SQLiteDialectOpensAndMigrates(t *testing.T) {
	cfg := &config.Config{
		StoreDialect: config.DialectSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "analyzer.db"),
	}

	s, err := database.OpenPerformanceStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.BestUA(context.Background())
	assert.NoError(t, err)
}

func TestOpenPerformanceStore_RejectsUnknownDialect(t *testing.T) {
	cfg := &config.Config{StoreDialect: "oracle"}

	_, err := database.OpenPerformanceStore(cfg)
	assert.Error(t, err)
}

func TestOpenJobStore_DefaultsToMemoryWithoutRedisClient(t *testing.T) {
	cfg := &config.Config{JobStoreDialect: config.JobStoreRedis}

	js := database.OpenJobStore(cfg, nil)
	_, ok := js.(*jobstore.MemoryStore)
	assert.True(t, ok, "nil redis client must fall back to MemoryStore")
}

func TestOpenJobStore_MemoryDialectReturnsMemoryStore(t *testing.T) {
	cfg := &config.Config{JobStoreDialect: config.JobStoreMemory}

	js := database.OpenJobStore(cfg, nil)
	_, ok := js.(*jobstore.MemoryStore)
	assert.True(t, ok)
}

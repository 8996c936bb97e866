package database

import (
	"context"
	"fmt"
	"testing"

	"bienesraices/internal/config"
	"bienesraices/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.DBDriver = "oracle"

	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestSeedAndReset(t *testing.T) {
	db, err := Open(memoryConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, Seed(context.Background(), db))

	var categories, prices int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Price{}).Count(&prices).Error)
	assert.Equal(t, int64(len(DefaultCategories)), categories)
	assert.Equal(t, int64(len(DefaultPrices)), prices)

	require.NoError(t, Reset(db))
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.Zero(t, categories)
}

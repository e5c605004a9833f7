package infrastructure

import (
	"context"
	"testing"

	"andrew-web-services/internal/adapter/db/memory"
	"andrew-web-services/internal/adapter/db/sqlstore"
	"andrew-web-services/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(driver string) *config.Config {
	cfg := &config.Config{}
	cfg.DB.Driver = driver
	cfg.DB.SQLitePath = ":memory:"
	cfg.DB.MaxOpenConns = 4
	cfg.DB.MaxIdleConns = 2
	cfg.DB.SeedUsers = "Scotty:17214,Uhura:4242"
	cfg.Logger.Level = "info"
	cfg.Logger.SlowQuerySeconds = 0.2
	return cfg
}

func TestNewUserStore_Memory(t *testing.T) {
	store, db, err := NewUserStore(context.Background(), testConfig(config.DriverMemory), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.IsType(t, &memory.InMemoryDatabase{}, store)

	u, err := store.FindByName(context.Background(), "Scotty")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 17214, u.PIN)
}

func TestNewUserStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store, db, err := NewUserStore(ctx, testConfig(config.DriverSQLite), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { _ = CloseDatabase(db) })
	assert.IsType(t, &sqlstore.UserRepo{}, store)

	u, err := store.FindByName(ctx, "Uhura")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 4242, u.PIN)

	missing, err := store.FindByName(ctx, "Kirk")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewUserStore_BadSeeds(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.DB.SeedUsers = "Scotty"

	_, _, err := NewUserStore(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(testConfig("mysql"), zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported")
}

func TestCloseDatabase_Nil(t *testing.T) {
	assert.NoError(t, CloseDatabase(nil))
}

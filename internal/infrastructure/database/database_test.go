package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-matcher/internal/infrastructure/config"
)

type probe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenDB(t *testing.T) {
	t.Run("sqlite file in nested dir", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "nested", "test.db")
		db, err := OpenDB(config.DatabaseConfig{Driver: DriverSQLite, DSN: dsn}, false, &probe{})
		require.NoError(t, err)
		defer CloseDB(db)

		require.NoError(t, db.Create(&probe{Name: "x"}).Error)
		var count int64
		require.NoError(t, db.Model(&probe{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		assert.FileExists(t, dsn)
		assert.NoError(t, PingDB(context.Background(), db))
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := OpenDB(config.DatabaseConfig{Driver: "oracle"}, false)
		assert.Error(t, err)
	})

	t.Run("close nil", func(t *testing.T) {
		assert.NoError(t, CloseDB(nil))
		assert.Error(t, PingDB(context.Background(), nil))
	})
}

package persistence

import (
	"context"
	"testing"

	"github.com/erp/perception/internal/domain/finance"
	"github.com/erp/perception/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewDatabase_SQLite(t *testing.T) {
	db := newTestDatabase(t)

	assert.NoError(t, db.Ping())
	for _, table := range []string{"parties", "products", "product_variants", "tax_definitions", "accounts", "documents", "document_lines", "document_line_taxes", "journal_items"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestNewDatabase_BadPath(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: "/nonexistent-dir/x/perception.db"}, nil)
	assert.Error(t, err)
}

func TestDatabase_Transaction(t *testing.T) {
	db := newTestDatabase(t)

	t.Run("rolls back on error", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			acc, err := finance.NewAccount(testTenant, "2.1.3.03.041", "Percepción RG 5329", finance.AccountTypeLiabilityCurrent)
			require.NoError(t, err)
			require.NoError(t, NewGormAccountRepository(tx).Save(context.Background(), acc))
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		var n int64
		require.NoError(t, db.DB.Table("accounts").Count(&n).Error)
		assert.Zero(t, n)
	})
}

// Copyright 2025 Certen Protocol

package capdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientRejectsEmptyURL(t *testing.T) {
	_, err := NewClient("", 5, 1, 0)
	require.Error(t, err)
}

func TestLoadMigrationsIsSortedAndNonEmpty(t *testing.T) {
	c := &Client{}
	migrations, err := c.loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for i := 1; i < len(migrations); i++ {
		require.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
	require.Contains(t, migrations[0].SQL, "CREATE TABLE")
}

package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKnowsBuiltins(t *testing.T) {
	for _, name := range []string{"sqlite", "postgres", "duckdb"} {
		assert.True(t, IsRegistered(name), "expected %s adapter to be registered", name)
	}
	assert.False(t, IsRegistered("oracle"))
}

func TestNewReturnsDistinctInstances(t *testing.T) {
	a, err := New("sqlite")
	require.NoError(t, err)
	b, err := New("sqlite")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("mssql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database type")
	assert.Contains(t, err.Error(), "sqlite")
}

func TestListIsSorted(t *testing.T) {
	names := List()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestDialectNaming(t *testing.T) {
	tests := []struct {
		dbType    string
		qualified string
		physical  string
		marker    string
	}{
		{"sqlite", "warehouse.dim_banks", "warehouse_dim_banks", "?"},
		{"postgres", "warehouse.dim_banks", "warehouse.dim_banks", "$3"},
		{"duckdb", "warehouse.dim_banks", "warehouse.dim_banks", "?"},
	}
	for _, tt := range tests {
		a, err := New(tt.dbType)
		require.NoError(t, err)
		assert.Equal(t, tt.physical, a.TableName(tt.qualified), tt.dbType)
		assert.Equal(t, tt.marker, a.Placeholder(3), tt.dbType)
		assert.Equal(t, tt.dbType, a.DialectName())
	}
}

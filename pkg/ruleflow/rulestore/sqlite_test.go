package rulestore_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/rulestore"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rules.db")

	store1, err := rulestore.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	saved, err := store1.Save(rulestore.Rule{
		Ruleset:    "orders",
		Name:       "allowed",
		Expression: "symbol in ${symbols}",
		Params:     map[string]any{"symbols": []any{"IBM", "MSFT"}},
	})
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	store2, err := rulestore.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.Load("orders", "allowed")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, loaded.ID)
	assert.Equal(t, []any{"IBM", "MSFT"}, loaded.Params["symbols"])
	assert.True(t, saved.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := rulestore.NewSQLiteStore("/nonexistent/path/rules.db")
	assert.Error(t, err)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := rulestore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_UnencodableParams(t *testing.T) {
	store, err := rulestore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Save(rulestore.Rule{
		Ruleset:    "orders",
		Name:       "bad",
		Expression: "x == 1",
		Params:     map[string]any{"ch": make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode params")
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	store, err := rulestore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("rule-%d", i)
			_, err := store.Save(rulestore.Rule{Ruleset: "orders", Name: name, Expression: "x == 1"})
			assert.NoError(t, err)
			_, err = store.Load("orders", name)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rules, err := store.List("orders")
	require.NoError(t, err)
	require.Len(t, rules, 20)
	for i, r := range rules {
		assert.Equal(t, i+1, r.Position)
	}
}

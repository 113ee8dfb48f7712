package rulestore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/rulestore"
)

type storeFactory func(t *testing.T) rulestore.Store

func rule(set, name, expr string) rulestore.Rule {
	return rulestore.Rule{Ruleset: set, Name: name, Expression: expr}
}

// storeContractTest runs the same checks against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		in := rulestore.Rule{
			Ruleset:     "orders",
			Name:        "high-value",
			Expression:  "price > ${min}",
			Description: "large orders",
			Params:      map[string]any{"min": 100.5},
		}
		saved, err := store.Save(in)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, 1, saved.Position)
		assert.False(t, saved.UpdatedAt.IsZero())

		loaded, err := store.Load("orders", "high-value")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, loaded.ID)
		assert.Equal(t, "price > ${min}", loaded.Expression)
		assert.Equal(t, "large orders", loaded.Description)
		assert.Equal(t, map[string]any{"min": 100.5}, loaded.Params)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load("orders", "missing")
		assert.ErrorIs(t, err, rulestore.ErrNotFound)
	})

	t.Run(name+"/Save_Update_KeepsIDAndPosition", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		first, err := store.Save(rule("orders", "a", "x == 1"))
		require.NoError(t, err)
		_, err = store.Save(rule("orders", "b", "x == 2"))
		require.NoError(t, err)

		updated, err := store.Save(rule("orders", "a", "x == 3"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, updated.ID)
		assert.Equal(t, 1, updated.Position)

		loaded, err := store.Load("orders", "a")
		require.NoError(t, err)
		assert.Equal(t, "x == 3", loaded.Expression)
	})

	t.Run(name+"/List_Ordered", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for _, n := range []string{"zeta", "alpha", "mid"} {
			_, err := store.Save(rule("orders", n, "x == 1"))
			require.NoError(t, err)
		}
		_, err := store.Save(rule("other", "solo", "y == 1"))
		require.NoError(t, err)

		rules, err := store.List("orders")
		require.NoError(t, err)
		require.Len(t, rules, 3)
		assert.Equal(t, "zeta", rules[0].Name)
		assert.Equal(t, "alpha", rules[1].Name)
		assert.Equal(t, "mid", rules[2].Name)
		assert.Equal(t, []int{1, 2, 3}, []int{rules[0].Position, rules[1].Position, rules[2].Position})
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		rules, err := store.List("unknown")
		require.NoError(t, err)
		assert.Empty(t, rules)
	})

	t.Run(name+"/Rulesets", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for _, set := range []string{"payments", "orders", "payments"} {
			_, err := store.Save(rule(set, "r-"+set, "x == 1"))
			require.NoError(t, err)
		}
		sets, err := store.Rulesets()
		require.NoError(t, err)
		assert.Equal(t, []string{"orders", "payments"}, sets)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Save(rule("orders", "a", "x == 1"))
		require.NoError(t, err)

		require.NoError(t, store.Delete("orders", "a"))
		_, err = store.Load("orders", "a")
		assert.ErrorIs(t, err, rulestore.ErrNotFound)

		assert.NoError(t, store.Delete("orders", "a"), "deleting a missing rule is not an error")
	})

	t.Run(name+"/DeleteRuleset", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Save(rule("orders", "a", "x == 1"))
		require.NoError(t, err)
		_, err = store.Save(rule("orders", "b", "x == 2"))
		require.NoError(t, err)
		_, err = store.Save(rule("other", "c", "x == 3"))
		require.NoError(t, err)

		require.NoError(t, store.DeleteRuleset("orders"))
		rules, err := store.List("orders")
		require.NoError(t, err)
		assert.Empty(t, rules)

		_, err = store.Load("other", "c")
		assert.NoError(t, err)
	})

	t.Run(name+"/Save_Invalid", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for _, r := range []rulestore.Rule{
			rule("", "a", "x == 1"),
			rule("orders", "", "x == 1"),
			rule("orders", "a", ""),
		} {
			_, err := store.Save(r)
			assert.ErrorIs(t, err, rulestore.ErrInvalidRule)
		}
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		_, err := store.Save(rule("orders", "a", "x == 1"))
		assert.ErrorIs(t, err, rulestore.ErrStoreClosed)
		_, err = store.Load("orders", "a")
		assert.ErrorIs(t, err, rulestore.ErrStoreClosed)
		_, err = store.List("orders")
		assert.ErrorIs(t, err, rulestore.ErrStoreClosed)
		_, err = store.Rulesets()
		assert.ErrorIs(t, err, rulestore.ErrStoreClosed)
		assert.ErrorIs(t, store.Delete("orders", "a"), rulestore.ErrStoreClosed)
		assert.ErrorIs(t, store.DeleteRuleset("orders"), rulestore.ErrStoreClosed)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) rulestore.Store {
		return rulestore.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) rulestore.Store {
		store, err := rulestore.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	})
}

package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	err := store.Set("key1", "value1")
	require.NoError(t, err)

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("key1", "original"))
	require.NoError(t, store.Set("key1", "updated"))

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "updated", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("string", "value")
	_ = store.Set("int", 42)

	assert.Equal(t, "value", store.GetString("string"))
	assert.Equal(t, "", store.GetString("int"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("int", 42)
	_ = store.Set("int64", int64(43))
	_ = store.Set("float", 123.7)
	_ = store.Set("string", "not_a_number")

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 43, store.GetInt("int64"))
	assert.Equal(t, 123, store.GetInt("float"))
	assert.Equal(t, 0, store.GetInt("string"))
	assert.Equal(t, 0, store.GetInt("missing"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("float", 0.65)
	_ = store.Set("float32", float32(0.5))
	_ = store.Set("int", 2)
	_ = store.Set("string", "not_a_number")

	assert.InDelta(t, 0.65, store.GetFloat("float"), 1e-9)
	assert.InDelta(t, 0.5, store.GetFloat("float32"), 1e-6)
	assert.InDelta(t, 2.0, store.GetFloat("int"), 1e-9)
	assert.InDelta(t, 0, store.GetFloat("string"), 1e-9)
	assert.InDelta(t, 0, store.GetFloat("missing"), 1e-9)
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("true", true)
	_ = store.Set("false", false)
	_ = store.Set("string", "true")

	assert.True(t, store.GetBool("true"))
	assert.False(t, store.GetBool("false"))
	assert.False(t, store.GetBool("string"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("strings", []string{"a", "b"})
	_ = store.Set("anys", []any{"c", 1, "d"})
	_ = store.Set("int", 42)

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("strings"))
	assert.Equal(t, []string{"c", "d"}, store.GetStringSlice("anys"))
	assert.Nil(t, store.GetStringSlice("int"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SaveAndLoad_NoOp(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_Path(t *testing.T) {
	store := NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines * 2)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			_ = store.Set("key-"+string(rune('A'+id%26)), id)
		}(i)
		go func(id int) {
			defer wg.Done()
			_ = store.GetInt("key-" + string(rune('A'+id%26)))
		}(i)
	}
	wg.Wait()

	// Should not panic or deadlock.
	_, _ = store.Get("key-A")
}

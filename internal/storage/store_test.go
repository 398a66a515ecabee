package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "k", []byte(`"v1"`)))
			require.NoError(t, s.Set(ctx, "k", []byte(`"v2"`)))
			v, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `"v2"`, string(v))

			require.NoError(t, s.Delete(ctx, "k"))
			require.NoError(t, s.Delete(ctx, "k"))
			_, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestUpdateAbortAndDelete(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "k", []byte("1")))

			err := s.Update(ctx, "k", func([]byte, bool) ([]byte, error) { return []byte("2"), boom })
			assert.ErrorIs(t, err, boom)
			v, _, _ := s.Get(ctx, "k")
			assert.Equal(t, "1", string(v))

			require.NoError(t, s.Update(ctx, "k", func(cur []byte, exists bool) ([]byte, error) {
				assert.True(t, exists)
				assert.Equal(t, "1", string(cur))
				return nil, nil
			}))
			_, ok, _ := s.Get(ctx, "k")
			assert.False(t, ok)
		})
	}
}

// Concurrent increments must not lose updates.
func TestUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			const workers, rounds = 8, 25
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < rounds; j++ {
						err := s.Update(ctx, "counter", func(cur []byte, exists bool) ([]byte, error) {
							n := 0
							if exists {
								n, _ = strconv.Atoi(string(cur))
							}
							return []byte(strconv.Itoa(n + 1)), nil
						})
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			v, _, err := s.Get(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(workers*rounds), string(v))
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	type entry struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, s, "e", entry{Name: "a"}))

	var got entry
	ok, err := GetJSON(ctx, s, "e", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Name)

	ok, err = GetJSON(ctx, s, "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "bad", []byte("{not json")))
	ok, err = GetJSON(ctx, s, "bad", &got)
	assert.True(t, ok)
	assert.True(t, IsReadError(err))
}

func TestUpdateJSONTreatsMalformedAsEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "list", []byte("[oops")))

	var reported error
	err := UpdateJSON(ctx, s, "list", func(err error) { reported = err }, func(cur []string, exists bool) ([]string, error) {
		assert.False(t, exists)
		assert.Empty(t, cur)
		return append(cur, "x"), nil
	})
	require.NoError(t, err)
	assert.True(t, IsReadError(reported))

	var got []string
	_, err = GetJSON(ctx, s, "list", &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestCloseNilDB(t *testing.T) {
	s := &SQLite{db: nil}
	assert.NoError(t, s.Close())
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "wallet_connected", []byte("true")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "wallet_connected")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", string(v))
}

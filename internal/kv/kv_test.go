package kv

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "mcc_users", `[{"id":"1"}]`))
		v, err := s.Get(ctx, "mcc_users")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"1"}]`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", "one"))
		require.NoError(t, s.Set(ctx, "k", "two"))
		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", v)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "gone", "x"))
		require.NoError(t, s.Remove(ctx, "gone"))
		_, err := s.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("remove missing key", func(t *testing.T) {
		assert.NoError(t, s.Remove(ctx, "never-set"))
	})

	t.Run("json helpers", func(t *testing.T) {
		type doc struct {
			Name string `json:"name"`
		}
		require.NoError(t, SetJSON(ctx, s, "doc", doc{Name: "Ana"}))

		var got doc
		found, err := GetJSON(ctx, s, "doc", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Ana", got.Name)

		found, err = GetJSON(ctx, s, "no-doc", &got)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("corrupt json", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "bad", "{not json"))
		var v map[string]any
		_, err := GetJSON(ctx, s, "bad", &v)
		assert.Error(t, err)
	})
}

// fakeClock is a settable time source for the stores' expiry checks.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func runTTLContract(t *testing.T, s Store, clock *fakeClock) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.SetWithTTL(ctx, "mcc_current_user:a", `{"id":"1"}`, time.Hour))
	require.NoError(t, s.SetWithTTL(ctx, "mcc_current_user:b", `{"id":"2"}`, 3*time.Hour))
	require.NoError(t, s.SetWithTTL(ctx, "forever", "x", 0))

	v, err := s.Get(ctx, "mcc_current_user:a")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, v)

	clock.advance(2 * time.Hour)

	_, err = s.Get(ctx, "mcc_current_user:a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "mcc_current_user:b")
	assert.NoError(t, err)

	// A plain Set clears an earlier expiry.
	require.NoError(t, s.Set(ctx, "mcc_current_user:b", `{"id":"2"}`))
	clock.advance(24 * time.Hour)

	_, err = s.Get(ctx, "mcc_current_user:b")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.now
	runTTLContract(t, s, clock)

	// Expired keys are dropped on the next write even if never read.
	require.NoError(t, s.SetWithTTL(context.Background(), "short", "x", time.Minute))
	clock.advance(time.Hour)
	before := s.Len()
	require.NoError(t, s.Set(context.Background(), "other", "y"))
	assert.Equal(t, before, s.Len(), "expired key replaced by the new one")
	_, ok := s.data["short"]
	assert.False(t, ok)
}

func TestSQLStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kv.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s, err := NewSQLStore(db)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestSQLStoreExpiry(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kv.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s, err := NewSQLStore(db)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.now = clock.now
	runTTLContract(t, s, clock)

	// The next write purges the expired row.
	var n int64
	require.NoError(t, db.Model(&Entry{}).Where("entry_key = ?", "mcc_current_user:a").Count(&n).Error)
	assert.Zero(t, n)
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "test")
	runStoreContract(t, store)

	require.NoError(t, store.SetWithTTL(ctx, "expiring", "x", time.Hour))
	ttl, err := client.TTL(ctx, "test:expiring").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	// Keys are namespaced under the prefix.
	n, err := client.Exists(ctx, "test:mcc_users").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

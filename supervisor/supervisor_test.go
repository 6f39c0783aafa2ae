package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lnbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a scriptable connection: readiness can be immediate,
// delayed or withheld, and opens can fail a set number of times.
type fakeConn struct {
	mu     sync.Mutex
	ready  chan struct{}
	closed bool
	opened bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{ready: make(chan struct{})}
}

func (c *fakeConn) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = true
	return nil
}

func (c *fakeConn) markReady() {
	close(c.ready)
}

func (c *fakeConn) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeConn) Ready() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened && !c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func settingsFor(token string) *models.BotSettings {
	return &models.BotSettings{Admin: "admin-" + token, Token: token}
}

func TestStart_StartStopLifecycle(t *testing.T) {
	var conns []*fakeConn
	var mu sync.Mutex
	sup := New(func(*models.BotSettings) (Connection, error) {
		conn := newFakeConn()
		conn.markReady()
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		return conn, nil
	})

	settings := settingsFor("T1")
	require.NoError(t, sup.Start(context.Background(), settings))
	assert.True(t, sup.IsRunning("T1"))

	require.NoError(t, sup.Stop(settings))
	assert.False(t, sup.IsRunning("T1"))
}

func TestStart_IdempotentForHealthyConnection(t *testing.T) {
	var created atomic.Int32
	sup := New(func(*models.BotSettings) (Connection, error) {
		created.Add(1)
		conn := newFakeConn()
		conn.markReady()
		return conn, nil
	})

	settings := settingsFor("T1")
	require.NoError(t, sup.Start(context.Background(), settings))
	require.NoError(t, sup.Start(context.Background(), settings))
	assert.Equal(t, int32(1), created.Load())
}

func TestStart_ConcurrentStartsShareOneConnection(t *testing.T) {
	var created atomic.Int32
	sup := New(func(*models.BotSettings) (Connection, error) {
		created.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		conn := newFakeConn()
		conn.markReady()
		return conn, nil
	})

	settings := settingsFor("T1")
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = sup.Start(context.Background(), settings)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), created.Load(), "exactly one live connection per token")
}

func TestStart_ReplacesDeadConnection(t *testing.T) {
	var created atomic.Int32
	sup := New(func(*models.BotSettings) (Connection, error) {
		created.Add(1)
		conn := newFakeConn()
		conn.markReady()
		return conn, nil
	})

	settings := settingsFor("T1")
	require.NoError(t, sup.Start(context.Background(), settings))

	// Kill the connection behind the supervisor's back
	sup.mu.Lock()
	conn := sup.instances["T1"].conn
	sup.mu.Unlock()
	require.NoError(t, conn.Close())
	assert.False(t, sup.IsRunning("T1"))

	require.NoError(t, sup.Start(context.Background(), settings))
	assert.True(t, sup.IsRunning("T1"))
	assert.Equal(t, int32(2), created.Load())
}

func TestStart_TimesOutWhenNeverReady(t *testing.T) {
	sup := New(func(*models.BotSettings) (Connection, error) {
		return newFakeConn(), nil // never marked ready
	})
	sup.SetStartTimeout(20 * time.Millisecond)

	err := sup.Start(context.Background(), settingsFor("T1"))
	require.ErrorIs(t, err, ErrStartTimeout)

	// The connection stays registered and alive, only the wait failed
	assert.True(t, sup.IsRunning("T1"))
}

func TestStart_RetriesFailedOpenOnce(t *testing.T) {
	var attempts atomic.Int32
	sup := New(func(*models.BotSettings) (Connection, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("gateway refused")
		}
		conn := newFakeConn()
		conn.markReady()
		return conn, nil
	})

	require.NoError(t, sup.Start(context.Background(), settingsFor("T1")))
	assert.Equal(t, int32(2), attempts.Load())
}

func TestStart_SecondFailureIsFatal(t *testing.T) {
	var attempts atomic.Int32
	sup := New(func(*models.BotSettings) (Connection, error) {
		attempts.Add(1)
		return nil, errors.New("gateway refused")
	})

	err := sup.Start(context.Background(), settingsFor("T1"))
	require.Error(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	assert.False(t, sup.IsRunning("T1"))

	// The failed token is absent again, a later start may retry fresh
	err = sup.Start(context.Background(), settingsFor("T1"))
	require.Error(t, err)
	assert.Equal(t, int32(4), attempts.Load())
}

func TestLivenessQueriesDuringStart(t *testing.T) {
	sup := New(func(*models.BotSettings) (Connection, error) {
		time.Sleep(5 * time.Millisecond) // keep the connect in flight
		conn := newFakeConn()
		conn.markReady()
		return conn, nil
	})

	settings := settingsFor("T1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, sup.Start(context.Background(), settings))
	}()

	// Liveness reads must be safe while the connection is still being
	// established.
	for {
		sup.IsRunning("T1")
		sup.Online("T1")
		select {
		case <-done:
			assert.True(t, sup.IsRunning("T1"))
			return
		default:
		}
	}
}

func TestOnline(t *testing.T) {
	conn := newFakeConn()
	sup := New(func(*models.BotSettings) (Connection, error) {
		return conn, nil
	})
	sup.SetStartTimeout(10 * time.Millisecond)

	assert.Nil(t, sup.Online("T1"), "untracked token has unknown liveness")

	_ = sup.Start(context.Background(), settingsFor("T1")) // times out, stays registered
	online := sup.Online("T1")
	require.NotNil(t, online)
	assert.False(t, *online)

	conn.markReady()
	online = sup.Online("T1")
	require.NotNil(t, online)
	assert.True(t, *online)
}

func TestLaunchAll_ContinuesPastFailures(t *testing.T) {
	sup := New(func(settings *models.BotSettings) (Connection, error) {
		if settings.Token == "bad" {
			return nil, errors.New("invalid token")
		}
		conn := newFakeConn()
		conn.markReady()
		return conn, nil
	})

	standalone := settingsFor("ext")
	standalone.Standalone = true
	sup.LaunchAll(context.Background(), []*models.BotSettings{
		settingsFor("T1"),
		settingsFor("bad"),
		standalone,
		settingsFor("T2"),
	})

	assert.True(t, sup.IsRunning("T1"))
	assert.True(t, sup.IsRunning("T2"))
	assert.False(t, sup.IsRunning("bad"))
	assert.False(t, sup.IsRunning("ext"), "standalone bots are not supervised")
}

func TestShutdown_ClosesEverything(t *testing.T) {
	var conns []*fakeConn
	var mu sync.Mutex
	sup := New(func(*models.BotSettings) (Connection, error) {
		conn := newFakeConn()
		conn.markReady()
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		return conn, nil
	})

	require.NoError(t, sup.Start(context.Background(), settingsFor("T1")))
	require.NoError(t, sup.Start(context.Background(), settingsFor("T2")))

	sup.Shutdown()

	assert.False(t, sup.IsRunning("T1"))
	assert.False(t, sup.IsRunning("T2"))
	for _, conn := range conns {
		conn.mu.Lock()
		assert.True(t, conn.closed)
		conn.mu.Unlock()
	}
}

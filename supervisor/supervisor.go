package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lnbot/models"

	log "github.com/sirupsen/logrus"
)

// ErrStartTimeout is returned when a connection never reports ready
// within the start bound. The connection keeps trying in the background
// and stays registered; callers see the failure instead of a hang.
var ErrStartTimeout = errors.New("bot did not become ready in time")

// Connection is one live bot link to the Discord gateway
type Connection interface {
	// Open establishes the gateway connection. Readiness arrives
	// asynchronously through WaitReady.
	Open() error
	// WaitReady blocks until the connection has seen its ready event
	// or ctx is done.
	WaitReady(ctx context.Context) error
	// Ready reports whether the ready event has been observed
	Ready() bool
	// Alive reports whether the connection has not been closed
	Alive() bool
	Close() error
}

// ConnectionFactory builds an unopened connection from bot settings
type ConnectionFactory func(settings *models.BotSettings) (Connection, error)

type instance struct {
	settings  *models.BotSettings
	conn      Connection
	startedAt time.Time

	// closed when the start attempt has finished, successfully or not
	started chan struct{}
	err     error
}

// Supervisor owns the set of running bot connections keyed by token.
// At most one live connection exists per token; concurrent starts for
// the same token share one attempt.
type Supervisor struct {
	factory      ConnectionFactory
	startTimeout time.Duration

	mu        sync.Mutex
	instances map[string]*instance
}

// New creates a supervisor with the default 30s start bound
func New(factory ConnectionFactory) *Supervisor {
	return &Supervisor{
		factory:      factory,
		startTimeout: 30 * time.Second,
		instances:    make(map[string]*instance),
	}
}

// SetStartTimeout overrides the readiness bound, mainly for tests
func (s *Supervisor) SetStartTimeout(d time.Duration) {
	s.startTimeout = d
}

// Start ensures a live connection for these settings. A healthy existing
// connection is returned unchanged; a dead one is discarded and
// replaced. Start blocks until the connection reports ready or the
// start bound elapses.
func (s *Supervisor) Start(ctx context.Context, settings *models.BotSettings) error {
	s.mu.Lock()
	inst, exists := s.instances[settings.Token]
	if exists && inst.conn != nil && !inst.conn.Alive() {
		// Found closed: treat as absent
		delete(s.instances, settings.Token)
		exists = false
	}
	if !exists {
		inst = &instance{
			settings:  settings,
			startedAt: time.Now(),
			started:   make(chan struct{}),
		}
		s.instances[settings.Token] = inst
		go s.connect(inst)
	}
	s.mu.Unlock()

	select {
	case <-inst.started:
	case <-ctx.Done():
		return ctx.Err()
	}
	if inst.err != nil {
		return inst.err
	}
	if inst.conn.Ready() {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.startTimeout)
	defer cancel()
	if err := inst.conn.WaitReady(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrStartTimeout
		}
		return err
	}
	return nil
}

// connect performs the actual dial, retrying a failed attempt exactly
// once before giving up and unregistering the token.
func (s *Supervisor) connect(inst *instance) {
	defer close(inst.started)

	conn, err := s.dial(inst.settings)
	if err != nil {
		log.Warnf("Bot for admin %s failed to connect, retrying once: %v", inst.settings.Admin, err)
		conn, err = s.dial(inst.settings)
	}

	if err != nil {
		s.mu.Lock()
		if s.instances[inst.settings.Token] == inst {
			delete(s.instances, inst.settings.Token)
		}
		s.mu.Unlock()
		inst.err = fmt.Errorf("failed to start bot for admin %s: %w", inst.settings.Admin, err)
		return
	}

	s.mu.Lock()
	inst.conn = conn
	s.mu.Unlock()
}

// dial is one full connection attempt, construction included
func (s *Supervisor) dial(settings *models.BotSettings) (Connection, error) {
	conn, err := s.factory(settings)
	if err != nil {
		return nil, err
	}
	if err := conn.Open(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Stop closes the connection for these settings. The token is removed
// from the registry immediately, the close itself finishes async.
func (s *Supervisor) Stop(settings *models.BotSettings) error {
	s.mu.Lock()
	inst, ok := s.instances[settings.Token]
	delete(s.instances, settings.Token)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	go func() {
		<-inst.started
		if inst.conn != nil {
			if err := inst.conn.Close(); err != nil {
				log.Errorf("Error closing bot for admin %s: %v", inst.settings.Admin, err)
			}
		}
	}()
	return nil
}

// Restart stops any running connection for these settings and starts a
// fresh one, picking up changed credentials.
func (s *Supervisor) Restart(ctx context.Context, settings *models.BotSettings) error {
	if err := s.Stop(settings); err != nil {
		return err
	}
	return s.Start(ctx, settings)
}

// IsRunning reports liveness for a token without mutating anything
func (s *Supervisor) IsRunning(token string) bool {
	s.mu.Lock()
	inst, ok := s.instances[token]
	s.mu.Unlock()
	return ok && inst.conn != nil && inst.conn.Alive()
}

// Online returns the readiness of a token's connection, or nil when no
// connection is tracked (standalone or never started).
func (s *Supervisor) Online(token string) *bool {
	s.mu.Lock()
	inst, ok := s.instances[token]
	s.mu.Unlock()
	if !ok || inst.conn == nil {
		return nil
	}
	ready := inst.conn.Ready()
	return &ready
}

// LaunchAll starts every supervisor-managed bot after a short settle
// delay. Per-bot failures are logged and do not abort the remaining
// launches.
func (s *Supervisor) LaunchAll(ctx context.Context, all []*models.BotSettings) {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
		return
	}

	for _, settings := range all {
		if settings.Standalone {
			continue
		}
		if err := s.Start(ctx, settings); err != nil {
			log.Errorf("Failed to launch bot for admin %s: %v", settings.Admin, err)
			continue
		}
		log.Infof("Launched bot for admin %s", settings.Admin)
	}
}

// Shutdown closes every tracked connection and empties the registry
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	instances := make([]*instance, 0, len(s.instances))
	for _, inst := range s.instances {
		instances = append(instances, inst)
	}
	s.instances = make(map[string]*instance)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, inst := range instances {
		wg.Add(1)
		go func(inst *instance) {
			defer wg.Done()
			<-inst.started
			if inst.conn != nil {
				if err := inst.conn.Close(); err != nil {
					log.Errorf("Error closing bot for admin %s: %v", inst.settings.Admin, err)
				}
			}
		}(inst)
	}
	wg.Wait()
}

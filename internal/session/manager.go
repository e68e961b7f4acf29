// Package session implements the inactivity countdown and the Redis-backed
// session record.
package session

import (
	"sync"
	"time"

	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"

	"go.uber.org/zap"
)

// State is the position of a session in its countdown.
type State string

const (
	StateActive  State = "active"
	StateWarning State = "warning"
	StateExpired State = "expired"
)

// Status is a snapshot of a countdown. Remaining is the time left until the
// next transition: the warning while active, the logout while warning.
type Status struct {
	State     State         `json:"state"`
	Role      domain.Role   `json:"role"`
	Remaining time.Duration `json:"-"`
	Deadline  time.Time     `json:"deadline"`
}

// RemainingSeconds rounds Remaining up to whole seconds.
func (s Status) RemainingSeconds() int {
	if s.Remaining <= 0 {
		return 0
	}
	return int((s.Remaining + time.Second - 1) / time.Second)
}

type countdown struct {
	role        domain.Role
	timeout     time.Duration
	state       State
	deadline    time.Time
	warnTimer   Timer
	logoutTimer Timer
	generation  uint64
}

// Manager owns one countdown per session. A session is warned after its role's
// inactivity timeout and expired after the warning grace period.
type Manager struct {
	mu       sync.Mutex
	clock    Clock
	cfg      config.SessionConfig
	sessions map[string]*countdown
	onExpire []func(id string)
}

func NewManager(cfg config.SessionConfig, clock Clock) *Manager {
	if clock == nil {
		clock = RealClock()
	}
	return &Manager{
		clock:    clock,
		cfg:      cfg,
		sessions: make(map[string]*countdown),
	}
}

// OnExpire registers fn to run after a session expires. It runs outside the
// manager lock.
func (m *Manager) OnExpire(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = append(m.onExpire, fn)
}

// Start begins (or restarts) the countdown for id.
func (m *Manager) Start(id string, role domain.Role) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[id]; ok {
		existing.stop()
	}
	cd := &countdown{role: role, timeout: m.cfg.TimeoutFor(role.String())}
	m.sessions[id] = cd
	m.arm(id, cd)
	return m.status(cd)
}

// Touch records user activity. Activity resets the countdown only while the
// session is active; once the warning is showing only Extend does.
func (m *Manager) Touch(id string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cd, ok := m.sessions[id]
	if !ok {
		return Status{State: StateExpired}, false
	}
	if cd.state == StateActive {
		cd.stop()
		m.arm(id, cd)
	}
	return m.status(cd), true
}

// Extend is the explicit "stay signed in" action.
func (m *Manager) Extend(id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cd, ok := m.sessions[id]
	if !ok || cd.state == StateExpired {
		return Status{State: StateExpired}, domain.NewSessionExpiredError()
	}
	cd.stop()
	m.arm(id, cd)
	return m.status(cd), nil
}

// Status reports the countdown for id. ok is false when none is running.
func (m *Manager) Status(id string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cd, ok := m.sessions[id]
	if !ok {
		return Status{State: StateExpired}, false
	}
	return m.status(cd), true
}

// End stops the countdown without running expiry callbacks.
func (m *Manager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cd, ok := m.sessions[id]; ok {
		cd.stop()
		delete(m.sessions, id)
	}
}

// Active returns the number of running countdowns.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// arm must be called with m.mu held.
func (m *Manager) arm(id string, cd *countdown) {
	cd.generation++
	gen := cd.generation
	cd.state = StateActive
	cd.deadline = m.clock.Now().Add(cd.timeout)
	cd.warnTimer = m.clock.AfterFunc(cd.timeout, func() { m.warn(id, gen) })
}

func (m *Manager) warn(id string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cd, ok := m.sessions[id]
	if !ok || cd.generation != gen || cd.state != StateActive {
		return
	}
	cd.state = StateWarning
	cd.deadline = m.clock.Now().Add(m.cfg.WarningGrace)
	cd.logoutTimer = m.clock.AfterFunc(m.cfg.WarningGrace, func() { m.expire(id, gen) })
	logger.Get().Debug("Session inactivity warning", zap.String("session_id", id), zap.String("role", cd.role.String()))
}

func (m *Manager) expire(id string, gen uint64) {
	m.mu.Lock()
	cd, ok := m.sessions[id]
	if !ok || cd.generation != gen || cd.state != StateWarning {
		m.mu.Unlock()
		return
	}
	cd.state = StateExpired
	delete(m.sessions, id)
	callbacks := append([]func(string){}, m.onExpire...)
	m.mu.Unlock()

	logger.Get().Info("Session expired after inactivity", zap.String("session_id", id), zap.String("role", cd.role.String()))
	for _, fn := range callbacks {
		fn(id)
	}
}

func (m *Manager) status(cd *countdown) Status {
	remaining := cd.deadline.Sub(m.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return Status{State: cd.state, Role: cd.role, Remaining: remaining, Deadline: cd.deadline}
}

func (cd *countdown) stop() {
	if cd.warnTimer != nil {
		cd.warnTimer.Stop()
		cd.warnTimer = nil
	}
	if cd.logoutTimer != nil {
		cd.logoutTimer.Stop()
		cd.logoutTimer = nil
	}
}

package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionManager tracks transient per-sender conversation state: one entry
// per channel address holding at most one pending-close timer. Nothing is
// persisted; after a restart the next message simply starts a fresh session.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
	shutdown bool
	logger   *zap.Logger
}

type session struct {
	timer        *time.Timer
	seq          uint64
	lastActivity time.Time
}

func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session),
		logger:   logger,
	}
}

// OnMessage records activity for the sender and reports whether this message
// opened a new session.
func (m *SessionManager) OnMessage(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return false
	}

	s, ok := m.sessions[key]
	if !ok {
		s = &session{}
		m.sessions[key] = s
	}
	s.lastActivity = time.Now()
	return !ok
}

// ScheduleClose arms the inactivity timer for the sender, replacing any timer
// already pending. onTimeout runs at most once per armed timer, and only if
// no newer schedule or cancel superseded it: the callback re-checks its
// sequence number under the lock before firing, which closes the race between
// an in-flight expiry and a concurrent reschedule.
func (m *SessionManager) ScheduleClose(key string, inactivity time.Duration, onTimeout func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return
	}

	s, ok := m.sessions[key]
	if !ok {
		s = &session{lastActivity: time.Now()}
		m.sessions[key] = s
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(inactivity, func() {
		m.expire(key, seq, onTimeout)
	})
}

// CancelClose disarms the pending timer for the sender, if any, and reports
// whether a timer was actually cancelled.
func (m *SessionManager) CancelClose(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok || s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.seq++ // invalidate an expiry that already fired and is waiting on the lock
	return true
}

// End removes the session entirely, disarming its timer.
func (m *SessionManager) End(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.seq++
		delete(m.sessions, key)
	}
}

// Active reports whether a session currently exists for the sender.
func (m *SessionManager) Active(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[key]
	return ok
}

// Shutdown disarms every pending timer. No close callback fires afterwards.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdown = true
	for key, s := range m.sessions {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(m.sessions, key)
	}
	m.logger.Info("session manager shut down")
}

func (m *SessionManager) expire(key string, seq uint64, onTimeout func()) {
	m.mu.Lock()
	s, ok := m.sessions[key]
	if m.shutdown || !ok || s.seq != seq {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, key)
	m.mu.Unlock()

	m.logger.Debug("session expired", zap.String("sender", key))
	onTimeout()
}

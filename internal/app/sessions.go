package app

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type sessionEntry struct {
	sess domain.Session
	seq  uint64
}

// SessionStore holds sessions and pending join requests behind one mutex so
// every transition (approve, disconnect cleanup) is a single critical section.
// Password hashing runs outside the lock.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*sessionEntry
	pending  map[domain.PendingID]*domain.PendingRequest
	seq      uint64

	cost  int
	newID func() string
	now   func() time.Time
}

type StoreOption func(*SessionStore)

// WithPasswordCost sets the bcrypt cost for session passwords.
func WithPasswordCost(cost int) StoreOption {
	return func(s *SessionStore) { s.cost = cost }
}

// WithIDGenerator replaces the short id source (tests force collisions with it).
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *SessionStore) { s.newID = fn }
}

// WithClock replaces the source of CreatedAt timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *SessionStore) { s.now = now }
}

func NewSessionStore(opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[domain.SessionID]*sessionEntry),
		pending:  make(map[domain.PendingID]*domain.PendingRequest),
		cost:     bcrypt.DefaultCost,
		newID:    domain.NewShortID,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// bcrypt caps input at 72 bytes; a hex digest always fits.
func passwordDigest(pw string) []byte {
	sum := sha256.Sum256([]byte(pw))
	return []byte(hex.EncodeToString(sum[:]))
}

func (s *SessionStore) hash(pw string) ([]byte, error) {
	if pw == "" {
		return nil, nil
	}
	h, err := bcrypt.GenerateFromPassword(passwordDigest(pw), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func passwordMatches(hash []byte, pw string) bool {
	if len(hash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(hash, passwordDigest(pw)) == nil
}

// CreateSession opens a waiting session hosted by host.
func (s *SessionStore) CreateSession(host domain.ConnID, password string) (domain.Session, error) {
	h, err := s.hash(password)
	if err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := domain.SessionID(s.newID())
	for {
		if _, taken := s.sessions[id]; !taken {
			break
		}
		id = domain.SessionID(s.newID())
	}
	s.seq++
	e := &sessionEntry{
		sess: domain.Session{
			ID:           id,
			Host:         host,
			PasswordHash: h,
			Status:       domain.SessionWaiting,
			CreatedAt:    s.now(),
		},
		seq: s.seq,
	}
	s.sessions[id] = e
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Str("host", string(host)).Bool("password", len(h) > 0).Msg("session created")
	return e.sess, nil
}

// SetPassword replaces the session password. Only the host may do it; an
// empty password opens the session.
func (s *SessionStore) SetPassword(id domain.SessionID, requester domain.ConnID, password string) error {
	h, err := s.hash(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if e.sess.Host != requester {
		return domain.ErrNotAuthorized
	}
	e.sess.PasswordHash = h
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Bool("password", len(h) > 0).Msg("password updated")
	return nil
}

// RequestJoin validates existence, password and capacity, in that order, and
// records a pending request for the host to decide on.
func (s *SessionStore) RequestJoin(
	id domain.SessionID,
	client domain.ConnID,
	password string,
	info map[string]string,
) (domain.PendingRequest, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return domain.PendingRequest{}, domain.ErrSessionNotFound
	}
	hash := e.sess.PasswordHash
	s.mu.Unlock()

	if !passwordMatches(hash, password) {
		return domain.PendingRequest{}, domain.ErrInvalidPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok = s.sessions[id]
	if !ok {
		return domain.PendingRequest{}, domain.ErrSessionNotFound
	}
	if !bytes.Equal(e.sess.PasswordHash, hash) {
		// password changed while we were comparing
		return domain.PendingRequest{}, domain.ErrInvalidPassword
	}
	if e.sess.HasClient() {
		return domain.PendingRequest{}, domain.ErrSessionFull
	}

	pid := domain.PendingID(s.newID())
	for {
		if _, taken := s.pending[pid]; !taken {
			break
		}
		pid = domain.PendingID(s.newID())
	}
	p := &domain.PendingRequest{
		ID:         pid,
		Session:    id,
		Client:     client,
		Host:       e.sess.Host,
		ClientInfo: maps.Clone(info),
		CreatedAt:  s.now(),
	}
	if p.ClientInfo == nil {
		p.ClientInfo = map[string]string{}
	}
	s.pending[pid] = p
	log.Info().Str("module", "app.sessions").Str("pending", string(pid)).Str("session", string(id)).Str("client", string(client)).Msg("join requested")
	return clonePending(p), nil
}

// Approve promotes a pending request to the session's client. It fails
// without side effects when the row is stale or the session is already taken.
func (s *SessionStore) Approve(pid domain.PendingID, approver domain.ConnID) (domain.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[pid]
	if !ok {
		return domain.PendingRequest{}, domain.ErrPendingNotFound
	}
	if p.Host != approver {
		return domain.PendingRequest{}, domain.ErrNotAuthorized
	}
	e, ok := s.sessions[p.Session]
	if !ok || e.sess.Host != p.Host || e.sess.HasClient() {
		return clonePending(p), domain.ErrApprovalFailed
	}
	e.sess.Client = p.Client
	e.sess.Status = domain.SessionConnected
	delete(s.pending, pid)
	log.Info().Str("module", "app.sessions").Str("pending", string(pid)).Str("session", string(p.Session)).Str("client", string(p.Client)).Msg("join approved")
	return clonePending(p), nil
}

// Reject drops a pending request on behalf of its host.
func (s *SessionStore) Reject(pid domain.PendingID, rejecter domain.ConnID) (domain.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[pid]
	if !ok {
		return domain.PendingRequest{}, domain.ErrPendingNotFound
	}
	if p.Host != rejecter {
		return domain.PendingRequest{}, domain.ErrNotAuthorized
	}
	delete(s.pending, pid)
	log.Info().Str("module", "app.sessions").Str("pending", string(pid)).Str("session", string(p.Session)).Msg("join rejected")
	return clonePending(p), nil
}

// Leave vacates the client slot held by client, if any.
func (s *SessionStore) Leave(client domain.ConnID) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.firstLocked(func(sess *domain.Session) bool { return sess.Client == client })
	if e == nil {
		return domain.Session{}, false
	}
	e.sess.Client = ""
	e.sess.Status = domain.SessionWaiting
	log.Info().Str("module", "app.sessions").Str("session", string(e.sess.ID)).Str("client", string(client)).Msg("client left")
	return e.sess, true
}

// Kick vacates the client slot of a session on the host's request.
func (s *SessionStore) Kick(id domain.SessionID, host domain.ConnID) (domain.ConnID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if e.sess.Host != host {
		return "", domain.ErrNotAuthorized
	}
	if !e.sess.HasClient() {
		return "", domain.ErrPeerUnavailable
	}
	client := e.sess.Client
	e.sess.Client = ""
	e.sess.Status = domain.SessionWaiting
	log.Info().Str("module", "app.sessions").Str("session", string(id)).Str("client", string(client)).Msg("client kicked")
	return client, nil
}

// Teardown lists what OnDisconnect removed.
type Teardown struct {
	Sessions []domain.Session
	Pending  []domain.PendingRequest
}

// OnDisconnect removes every session and pending request that references
// conn in any role. Losing either party destroys the session.
func (s *SessionStore) OnDisconnect(conn domain.ConnID) Teardown {
	s.mu.Lock()
	defer s.mu.Unlock()
	var td Teardown
	for id, e := range s.sessions {
		if e.sess.Host == conn || e.sess.Client == conn {
			td.Sessions = append(td.Sessions, e.sess)
			delete(s.sessions, id)
			log.Info().Str("module", "app.sessions").Str("session", string(id)).Str("conn", string(conn)).Msg("session removed")
		}
	}
	for id, p := range s.pending {
		if p.Client == conn || p.Host == conn {
			td.Pending = append(td.Pending, clonePending(p))
			delete(s.pending, id)
		}
	}
	sort.Slice(td.Sessions, func(i, j int) bool { return td.Sessions[i].ID < td.Sessions[j].ID })
	sort.Slice(td.Pending, func(i, j int) bool { return td.Pending[i].ID < td.Pending[j].ID })
	return td
}

// PeerOf finds the first session (by creation) where conn is host or client
// and returns the other party, which may be empty.
func (s *SessionStore) PeerOf(conn domain.ConnID) (domain.Session, domain.ConnID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.firstLocked(func(sess *domain.Session) bool {
		return sess.Host == conn || sess.Client == conn
	})
	if e == nil {
		return domain.Session{}, "", false
	}
	if e.sess.Host == conn {
		return e.sess, e.sess.Client, true
	}
	return e.sess, e.sess.Host, true
}

// ClientOf returns the client of the first session hosted by host.
func (s *SessionStore) ClientOf(host domain.ConnID) (domain.ConnID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.firstLocked(func(sess *domain.Session) bool { return sess.Host == host })
	if e == nil || !e.sess.HasClient() {
		return "", false
	}
	return e.sess.Client, true
}

func (s *SessionStore) Get(id domain.SessionID) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return e.sess, true
}

func (s *SessionStore) Counts() (sessions, pending int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), len(s.pending)
}

// Snapshot returns read-only views ordered by id.
func (s *SessionStore) Snapshot() ([]domain.SessionView, []domain.PendingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]domain.SessionView, 0, len(s.sessions))
	for _, e := range s.sessions {
		sessions = append(sessions, e.sess.View())
	}
	pending := make([]domain.PendingRequest, 0, len(s.pending))
	for _, p := range s.pending {
		pending = append(pending, clonePending(p))
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return sessions, pending
}

func (s *SessionStore) firstLocked(match func(*domain.Session) bool) *sessionEntry {
	var best *sessionEntry
	for _, e := range s.sessions {
		if !match(&e.sess) {
			continue
		}
		if best == nil || e.seq < best.seq {
			best = e
		}
	}
	return best
}

func clonePending(p *domain.PendingRequest) domain.PendingRequest {
	out := *p
	out.ClientInfo = maps.Clone(p.ClientInfo)
	return out
}

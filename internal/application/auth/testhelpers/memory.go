// Package testhelpers provides an in-memory unit of work and repositories for
// application-layer tests. The store honours the same invariants as the
// PostgreSQL implementation: the active predicate, at most one active
// credential per family, linear rotation chains, and rollback-on-error
// transaction semantics (via snapshots).
package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// MemoryStore is a transactional in-memory backing for all three repositories.
type MemoryStore struct {
	mu sync.Mutex

	users        map[int64]*identity.User
	usersByEmail map[string]int64
	nextUserID   int64

	sessions      map[uuid.UUID]*auth.Session
	nextSessionID int64

	refresh       map[uuid.UUID]*auth.RefreshCredential
	refreshByHash map[string]uuid.UUID
	nextRefreshID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]*identity.User),
		usersByEmail:  make(map[string]int64),
		sessions:      make(map[uuid.UUID]*auth.Session),
		refresh:       make(map[uuid.UUID]*auth.RefreshCredential),
		refreshByHash: make(map[string]uuid.UUID),
	}
}

type snapshot struct {
	users         map[int64]*identity.User
	usersByEmail  map[string]int64
	nextUserID    int64
	sessions      map[uuid.UUID]*auth.Session
	nextSessionID int64
	refresh       map[uuid.UUID]*auth.RefreshCredential
	refreshByHash map[string]uuid.UUID
	nextRefreshID int64
}

func (s *MemoryStore) snapshot() snapshot {
	snap := snapshot{
		users:         make(map[int64]*identity.User, len(s.users)),
		usersByEmail:  make(map[string]int64, len(s.usersByEmail)),
		nextUserID:    s.nextUserID,
		sessions:      make(map[uuid.UUID]*auth.Session, len(s.sessions)),
		nextSessionID: s.nextSessionID,
		refresh:       make(map[uuid.UUID]*auth.RefreshCredential, len(s.refresh)),
		refreshByHash: make(map[string]uuid.UUID, len(s.refreshByHash)),
		nextRefreshID: s.nextRefreshID,
	}
	for id, u := range s.users {
		copied := *u
		snap.users[id] = &copied
	}
	for email, id := range s.usersByEmail {
		snap.usersByEmail[email] = id
	}
	for sid, sess := range s.sessions {
		copied := *sess
		snap.sessions[sid] = &copied
	}
	for jti, cred := range s.refresh {
		copied := *cred
		snap.refresh[jti] = &copied
	}
	for hash, jti := range s.refreshByHash {
		snap.refreshByHash[hash] = jti
	}
	return snap
}

func (s *MemoryStore) restore(snap snapshot) {
	s.users = snap.users
	s.usersByEmail = snap.usersByEmail
	s.nextUserID = snap.nextUserID
	s.sessions = snap.sessions
	s.nextSessionID = snap.nextSessionID
	s.refresh = snap.refresh
	s.refreshByHash = snap.refreshByHash
	s.nextRefreshID = snap.nextRefreshID
}

// UnitOfWork returns an auth.UnitOfWork over this store.
func (s *MemoryStore) UnitOfWork() auth.UnitOfWork {
	return &memoryUoW{store: s}
}

type memoryUoW struct {
	store *MemoryStore
}

func (u *memoryUoW) WithinTx(ctx context.Context, fn func(tx auth.RepoSet) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	snap := u.store.snapshot()
	set := &memoryRepoSet{store: u.store}
	if err := fn(set); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type memoryRepoSet struct {
	store *MemoryStore
}

func (r *memoryRepoSet) Users() identity.UserRepository { return &memoryUserRepo{store: r.store} }
func (r *memoryRepoSet) Sessions() auth.SessionRepository {
	return &memorySessionRepo{store: r.store}
}
func (r *memoryRepoSet) Refresh() auth.RefreshRepository { return &memoryRefreshRepo{store: r.store} }

func (r *memoryRepoSet) Savepoint(_ context.Context, fn func() error) error {
	snap := r.store.snapshot()
	if err := fn(); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type memoryUserRepo struct {
	store *MemoryStore
}

func (r *memoryUserRepo) Create(_ context.Context, user *identity.User) (*identity.User, error) {
	if _, taken := r.store.usersByEmail[user.Email().String()]; taken {
		return nil, identity.ErrEmailAlreadyUsed
	}

	r.store.nextUserID++
	created := identity.ReconstructUser(
		r.store.nextUserID,
		user.Email(),
		user.HashedPassword(),
		user.FullName(),
		user.IsActive(),
		user.IsSuperuser(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	r.store.users[created.ID()] = created
	r.store.usersByEmail[created.Email().String()] = created.ID()
	return created, nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*identity.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email identity.Email) (*identity.User, error) {
	id, ok := r.store.usersByEmail[email.String()]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	copied := *r.store.users[id]
	return &copied, nil
}

func (r *memoryUserRepo) EmailExists(_ context.Context, email identity.Email) (bool, error) {
	_, ok := r.store.usersByEmail[email.String()]
	return ok, nil
}

func (r *memoryUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	user, ok := r.store.users[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	now := time.Now().UTC()
	if active {
		user.Activate(now)
	} else {
		user.Deactivate(now)
	}
	return nil
}

func (r *memoryUserRepo) SetPassword(_ context.Context, id int64, hash identity.HashedPassword) error {
	user, ok := r.store.users[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	return user.ChangePassword(hash, time.Now().UTC())
}

// --- sessions ---

type memorySessionRepo struct {
	store *MemoryStore
}

func (r *memorySessionRepo) CreateSession(_ context.Context, session *auth.Session) (*auth.Session, error) {
	if _, exists := r.store.sessions[session.SessionID]; exists {
		return nil, fmt.Errorf("duplicate session_id %s", session.SessionID)
	}
	r.store.nextSessionID++
	copied := *session
	copied.ID = r.store.nextSessionID
	r.store.sessions[copied.SessionID] = &copied
	result := copied
	return &result, nil
}

func (r *memorySessionRepo) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*auth.Session, error) {
	session, ok := r.store.sessions[sessionID]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *memorySessionRepo) ListActiveByUser(_ context.Context, userID int64) ([]*auth.Session, error) {
	var active []*auth.Session
	for _, session := range r.store.sessions {
		if session.UserID == userID && !session.IsRevoked() {
			copied := *session
			active = append(active, &copied)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		var ti, tj time.Time
		if active[i].LastSeenAt != nil {
			ti = *active[i].LastSeenAt
		}
		if active[j].LastSeenAt != nil {
			tj = *active[j].LastSeenAt
		}
		return ti.After(tj)
	})
	return active, nil
}

func (r *memorySessionRepo) Touch(_ context.Context, sessionID uuid.UUID, when time.Time) (int64, error) {
	session, ok := r.store.sessions[sessionID]
	if !ok || session.IsRevoked() {
		return 0, nil
	}
	if err := session.Touch(when); err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *memorySessionRepo) RevokeSession(_ context.Context, sessionID uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	session, ok := r.store.sessions[sessionID]
	if !ok || session.IsRevoked() {
		return 0, nil
	}
	session.Revoke(reason, when)
	return 1, nil
}

func (r *memorySessionRepo) RevokeAllForUser(_ context.Context, userID int64, reason auth.RevokeReason, when time.Time) (int64, error) {
	var count int64
	for _, session := range r.store.sessions {
		if session.UserID == userID && !session.IsRevoked() {
			session.Revoke(reason, when)
			count++
		}
	}
	return count, nil
}

func (r *memorySessionRepo) DeleteExpired(_ context.Context, now time.Time, retention time.Duration) (int64, error) {
	cutoff := now.Add(-retention)
	var count int64
	for sid, session := range r.store.sessions {
		if session.RevokedAt != nil && session.RevokedAt.Before(cutoff) {
			delete(r.store.sessions, sid)
			count++
		}
	}
	return count, nil
}

// --- refresh credentials ---

type memoryRefreshRepo struct {
	store *MemoryStore
}

func (r *memoryRefreshRepo) CreateRefresh(_ context.Context, credential *auth.RefreshCredential) (*auth.RefreshCredential, error) {
	if _, exists := r.store.refresh[credential.JTI]; exists {
		return nil, fmt.Errorf("duplicate jti %s", credential.JTI)
	}
	if _, exists := r.store.refreshByHash[credential.TokenHash]; exists {
		return nil, fmt.Errorf("duplicate token_hash %s", credential.TokenHash)
	}
	// family uniqueness: at most one active row per family at any instant
	now := time.Now().UTC()
	if credential.Active(now) {
		for _, other := range r.store.refresh {
			if other.FamilyID == credential.FamilyID && other.Active(now) {
				return nil, fmt.Errorf("family %s already has an active credential", credential.FamilyID)
			}
		}
	}

	r.store.nextRefreshID++
	copied := *credential
	copied.ID = r.store.nextRefreshID
	r.store.refresh[copied.JTI] = &copied
	r.store.refreshByHash[copied.TokenHash] = copied.JTI
	result := copied
	return &result, nil
}

func (r *memoryRefreshRepo) GetByJTI(_ context.Context, jti uuid.UUID) (*auth.RefreshCredential, error) {
	credential, ok := r.store.refresh[jti]
	if !ok {
		return nil, auth.ErrRefreshNotActive
	}
	copied := *credential
	return &copied, nil
}

func (r *memoryRefreshRepo) GetActiveByHash(_ context.Context, tokenHash string, now time.Time) (*auth.RefreshCredential, error) {
	jti, ok := r.store.refreshByHash[tokenHash]
	if !ok {
		return nil, auth.ErrRefreshNotActive
	}
	credential := r.store.refresh[jti]
	if !credential.Active(now) {
		return nil, auth.ErrRefreshNotActive
	}
	copied := *credential
	return &copied, nil
}

func (r *memoryRefreshRepo) RevokeByJTI(_ context.Context, jti uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	credential, ok := r.store.refresh[jti]
	if !ok || credential.RevokedAt != nil {
		return 0, nil
	}
	credential.Revoke(reason, when)
	return 1, nil
}

func (r *memoryRefreshRepo) RevokeFamily(_ context.Context, familyID uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	var count int64
	for _, credential := range r.store.refresh {
		if credential.FamilyID == familyID && credential.RevokedAt == nil {
			credential.Revoke(reason, when)
			count++
		}
	}
	return count, nil
}

func (r *memoryRefreshRepo) RevokeBySession(_ context.Context, sessionID uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	var count int64
	for _, credential := range r.store.refresh {
		if credential.SessionID == sessionID && credential.RevokedAt == nil {
			credential.Revoke(reason, when)
			count++
		}
	}
	return count, nil
}

func (r *memoryRefreshRepo) RevokeAllForUser(_ context.Context, userID int64, reason auth.RevokeReason, when time.Time) (int64, error) {
	var count int64
	for _, credential := range r.store.refresh {
		if credential.UserID == userID && credential.RevokedAt == nil {
			credential.Revoke(reason, when)
			count++
		}
	}
	return count, nil
}

func (r *memoryRefreshRepo) RotateActive(ctx context.Context, params auth.RotateParams) (*auth.RefreshCredential, error) {
	jti, ok := r.store.refreshByHash[params.OldTokenHash]
	if !ok {
		return nil, auth.ErrRefreshNotActive
	}
	predecessor := r.store.refresh[jti]
	if !predecessor.Active(params.Now) {
		return nil, auth.ErrRefreshNotActive
	}

	predecessor.MarkRotated(params.NewJTI, params.Now)

	successor := &auth.RefreshCredential{
		UserID:    predecessor.UserID,
		JTI:       params.NewJTI,
		FamilyID:  predecessor.FamilyID,
		SessionID: predecessor.SessionID,
		TokenHash: params.NewTokenHash,
		IssuedAt:  params.IssuedAt,
		ExpiresAt: params.ExpiresAt,
	}

	inserted, err := r.CreateRefresh(ctx, successor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrRefreshRotate, err)
	}
	return inserted, nil
}

func (r *memoryRefreshRepo) DeleteExpired(_ context.Context, now time.Time, retention time.Duration) (int64, error) {
	cutoff := now.Add(-retention)
	var count int64
	for jti, credential := range r.store.refresh {
		expired := credential.ExpiresAt.Before(cutoff)
		revoked := credential.RevokedAt != nil && credential.RevokedAt.Before(cutoff)
		if expired || revoked {
			delete(r.store.refreshByHash, credential.TokenHash)
			delete(r.store.refresh, jti)
			count++
		}
	}
	return count, nil
}

package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// In-memory fakes shared by the service tests. They mirror the store
// contracts: uniqueness violations and absent rows surface the same sentinel
// errors the real repositories map to.

type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	if user.Role == domain.RoleAdmin {
		for _, u := range r.users {
			if u.Role == domain.RoleAdmin {
				return nil, domain.ErrAdminExists
			}
		}
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("u%d", r.seq)
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id string, update ports.PasswordUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordSalt = update.Salt
	u.PasswordHash = update.Hash
	if update.WriteIterations {
		u.Iterations = update.Iterations
	}
	return nil
}

func (r *stubUserRepo) SetAliasLimit(_ context.Context, id string, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.AliasLimit = limit
	return nil
}

func (r *stubUserRepo) SetDisabled(_ context.Context, id string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Disabled = disabled
	return nil
}

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *stubSessionRepo) Insert(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *session
	r.sessions[session.TokenHash] = &clone
	return nil
}

func (r *stubSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[tokenHash]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (r *stubSessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *stubSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for hash, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, hash)
			swept++
		}
	}
	return swept, nil
}

type stubResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.ResetToken
}

func newStubResetRepo() *stubResetRepo {
	return &stubResetRepo{tokens: make(map[string]*domain.ResetToken)}
}

func (r *stubResetRepo) Insert(_ context.Context, token *domain.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *token
	r.tokens[token.TokenHash] = &clone
	return nil
}

func (r *stubResetRepo) Consume(_ context.Context, tokenHash string) (*domain.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	delete(r.tokens, tokenHash)
	return token, nil
}

func (r *stubResetRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for hash, token := range r.tokens {
		if token.Expired(now) {
			delete(r.tokens, hash)
			swept++
		}
	}
	return swept, nil
}

type stubAliasRepo struct {
	mu      sync.Mutex
	seq     int
	aliases map[string]*domain.Alias
}

func newStubAliasRepo() *stubAliasRepo {
	return &stubAliasRepo{aliases: make(map[string]*domain.Alias)}
}

func (r *stubAliasRepo) Insert(_ context.Context, alias *domain.Alias) (*domain.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.aliases {
		if a.LocalPart == alias.LocalPart {
			return nil, domain.ErrAliasExists
		}
	}
	r.seq++
	clone := *alias
	clone.ID = fmt.Sprintf("a%d", r.seq)
	r.aliases[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubAliasRepo) FindByID(_ context.Context, id string) (*domain.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.aliases[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, domain.ErrAliasNotFound
}

func (r *stubAliasRepo) FindByLocalPart(_ context.Context, localPart string) (*domain.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.aliases {
		if a.LocalPart == localPart {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAliasNotFound
}

func (r *stubAliasRepo) ListByUser(_ context.Context, userID string) ([]domain.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Alias
	for _, a := range r.aliases {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubAliasRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.aliases {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *stubAliasRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aliases[id]; !ok {
		return domain.ErrAliasNotFound
	}
	delete(r.aliases, id)
	return nil
}

type stubMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*domain.Message
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{messages: make(map[string]*domain.Message)}
}

func (r *stubMessageRepo) Insert(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := *msg
	clone.ID = fmt.Sprintf("m%d", r.seq)
	r.messages[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, domain.ErrMessageNotFound
}

func (r *stubMessageRepo) ListByUser(_ context.Context, userID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func (r *stubMessageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *stubMessageRepo) DeleteByAlias(_ context.Context, aliasID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for id, m := range r.messages {
		if m.AliasID == aliasID {
			keys = append(keys, m.BlobKey)
			delete(r.messages, id)
		}
	}
	return keys, nil
}

type stubBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{blobs: make(map[string][]byte)}
}

func (s *stubBlobStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *stubBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.blobs[key]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, fmt.Errorf("blob %s not found", key)
}

func (s *stubBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *stubBlobStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, aliasID, messageID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.seen[aliasID+"/"+messageID], nil
}

func (d *stubDedup) Mark(_ context.Context, aliasID, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.seen[aliasID+"/"+messageID] = true
	return nil
}

// stubNotifier records sends on a channel so tests can wait for the
// fire-and-forget goroutine.
type stubNotifier struct {
	sent chan string // raw tokens
	err  error
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{sent: make(chan string, 8)}
}

func (n *stubNotifier) SendReset(_ context.Context, _, rawToken string) error {
	if n.err != nil {
		return n.err
	}
	n.sent <- rawToken
	return nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/dbx"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/auth"
	"github.com/fakhri2406/creadev/internal/server/config"
	"github.com/fakhri2406/creadev/internal/server/models"
	"github.com/fakhri2406/creadev/internal/server/repositories/refreshtokens"
	"github.com/fakhri2406/creadev/internal/server/repositories/revokedtokens"
	"github.com/fakhri2406/creadev/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// plainHasher keeps tests fast; the real hashers are covered in cryptox.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "plain$" + plain, nil }
func (plainHasher) Matches(plain, digest string) bool { return digest == "plain$"+plain }

// memStore is an in-memory stand-in for the three tables. It ignores the
// DBTX handed to the repository factories, so a rolled back transaction is
// not undone here.
type memStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	revoked map[string]time.Time

	usersErr   error
	tokensErr  error
	revokedErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		tokens:  map[string]*models.RefreshToken{},
		revoked: map[string]time.Time{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) tokensFor(userID string) []*models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

var roleIDs = map[string]int64{common.RoleAdmin: 1, common.RoleEditor: 2}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	for _, existing := range r.s.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = r.s.nextID("user")
	cp.RegisteredAt = time.Now()
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetUserByUsername(_ context.Context, name string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	for _, u := range r.s.users {
		if u.UserName == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

func (r memUsers) LockByID(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r memUsers) GetRoleID(_ context.Context, title string) (int64, error) {
	id, ok := roleIDs[title]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

type memRefreshTokens struct{ s *memStore }

func (r memRefreshTokens) Create(_ context.Context, userID, token string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return r.s.tokensErr
	}
	r.s.tokens[token] = &models.RefreshToken{
		ID:        r.s.nextID("rt"),
		UserID:    userID,
		Token:     token,
		Expires:   expires,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r memRefreshTokens) FindForUpdate(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memRefreshTokens) FindByUserID(_ context.Context, userID string) ([]*models.RefreshToken, error) {
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	out := r.s.tokensFor(userID)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRefreshTokens) Rotate(_ context.Context, id, token string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key, t := range r.s.tokens {
		if t.ID == id {
			delete(r.s.tokens, key)
			t.Token = token
			t.Expires = expires
			r.s.tokens[token] = t
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memRefreshTokens) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

func (r memRefreshTokens) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return 0, r.s.tokensErr
	}
	var n int64
	for key, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, key)
			n++
		}
	}
	return n, nil
}

func (r memRefreshTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return 0, r.s.tokensErr
	}
	var n int64
	for key, t := range r.s.tokens {
		if t.Expires.Before(now) {
			delete(r.s.tokens, key)
			n++
		}
	}
	return n, nil
}

type memRevoked struct{ s *memStore }

func (r memRevoked) Create(_ context.Context, token string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.revokedErr != nil {
		return r.s.revokedErr
	}
	if _, ok := r.s.revoked[token]; !ok {
		r.s.revoked[token] = expires
	}
	return nil
}

func (r memRevoked) Exists(_ context.Context, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.revokedErr != nil {
		return false, r.s.revokedErr
	}
	_, ok := r.s.revoked[token]
	return ok, nil
}

func (r memRevoked) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.revokedErr != nil {
		return 0, r.s.revokedErr
	}
	var n int64
	for token, exp := range r.s.revoked {
		if exp.Before(now) {
			delete(r.s.revoked, token)
			n++
		}
	}
	return n, nil
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *memRepoManager) Users(dbx.DBTX) users.Repository                 { return memUsers{m.s} }
func (m *memRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return memRefreshTokens{m.s} }
func (m *memRepoManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository { return memRevoked{m.s} }

// --- environment ---

type testEnv struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *memStore
	clock *testClock
	svc   *AuthService
	authn *Authenticator
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		TokenIssuer:                  "creadev",
		TokenAudience:                "creadev-backoffice",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := newMemStore()
	rm := &memRepoManager{s: store}
	clock := newTestClock()
	logger := logging.NewDiscardLogger()

	svc := NewAuthService(db, rm, plainHasher{}, testConfig(), logger, WithClock(clock.Now))
	return &testEnv{
		db:    db,
		mock:  mock,
		store: store,
		clock: clock,
		svc:   svc,
		authn: NewAuthenticator(db, rm, svc.Codec(), logger),
	}
}

// expectCommitted queues n transactions that are expected to commit.
func (e *testEnv) expectCommitted(n int) {
	for i := 0; i < n; i++ {
		e.mock.ExpectBegin()
		e.mock.ExpectCommit()
	}
}

func (e *testEnv) expectRolledBack() {
	e.mock.ExpectBegin()
	e.mock.ExpectRollback()
}

func (e *testEnv) verifyTx(t *testing.T) {
	t.Helper()
	if err := e.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func (e *testEnv) addUser(t *testing.T, username, password, role string) *models.User {
	t.Helper()
	u, err := e.svc.CreateAccount(context.Background(), NewAccount{
		Username:    username,
		Password:    password,
		FirstName:   "First " + username,
		LastName:    "Last " + username,
		Email:       username + "@example.com",
		PhoneNumber: "+10000000000",
		Role:        role,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", username, err)
	}
	return u
}

// as returns a context carrying the identity resolved from accessToken, the
// way the HTTP middleware builds it.
func (e *testEnv) as(t *testing.T, accessToken string) context.Context {
	t.Helper()
	ctx, err := e.authn.AuthenticateContext(context.Background(), "Bearer "+accessToken)
	if err != nil {
		t.Fatalf("AuthenticateContext: %v", err)
	}
	return ctx
}

func identityCtx(username string) context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{Username: username, Source: auth.SourceClaims})
}

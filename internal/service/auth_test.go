package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/model"
	"github.com/plantscan/plantscan/internal/repository"
)

// fakeUserStore is an in-memory UserStore keyed by email.
type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.Email]; ok {
		return repository.ErrEmailExists
	}
	copied := *user
	f.users[user.Email] = &copied
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// fakeGoogle verifies any token matching its expected value.
type fakeGoogle struct {
	token string
	email string
	name  string
}

func (f *fakeGoogle) Verify(ctx context.Context, token string) (string, string, error) {
	if token != f.token {
		return "", "", auth.ErrInvalidGoogleToken
	}
	return f.email, f.name, nil
}

func newTestAuthService(t *testing.T, store UserStore, google auth.GoogleVerifier, ttl time.Duration) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", "HS256", ttl)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(store, tokens, google, logger)
}

func TestSignup_CreatesUser(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, time.Minute)

	user, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "A", user.Name)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "p1", user.PasswordHash)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "a@x.com", "B", "p2")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, store.users, 1, "duplicate signup must not create a second record")
}

func TestSignup_InsertRace(t *testing.T) {
	// Lookup misses but the insert hits the unique constraint: the
	// conflict still surfaces as ErrEmailTaken.
	store := &racingUserStore{inner: newFakeUserStore()}
	svc := newTestAuthService(t, store, nil, time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// racingUserStore reports no user on lookup but a conflict on insert.
type racingUserStore struct {
	inner *fakeUserStore
}

func (r *racingUserStore) CreateUser(ctx context.Context, user *model.User) error {
	return repository.ErrEmailExists
}

func (r *racingUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func TestLogin_Success(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, 30*time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLogin_GenericFailure(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	// Wrong password and unknown email produce the identical error.
	_, errWrongPassword := svc.Login(context.Background(), "a@x.com", "wrong")
	_, errUnknownEmail := svc.Login(context.Background(), "nobody@x.com", "p1")

	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestCurrentUser_RoundTrip(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, 30*time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "a@x.com", "p1")
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestCurrentUser_ExpiredToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, -time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "a@x.com", "p1")
	require.NoError(t, err)

	_, err = svc.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCurrentUser_UnknownSubject(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil, time.Minute)

	// Token for an email with no account (e.g. the row was removed
	// after issuance).
	tokens, err := auth.NewTokenManager("test-secret", "HS256", time.Minute)
	require.NoError(t, err)
	token, err := tokens.Issue("ghost@x.com")
	require.NoError(t, err)

	_, err = svc.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestGoogleLogin_FirstSeenCreatesUser(t *testing.T) {
	store := newFakeUserStore()
	google := &fakeGoogle{token: "valid-token", email: "g@x.com", name: "G User"}
	svc := newTestAuthService(t, store, google, 30*time.Minute)

	token, err := svc.GoogleLogin(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	user, err := store.GetUserByEmail(context.Background(), "g@x.com")
	require.NoError(t, err)
	assert.Equal(t, "G User", user.Name)
	assert.NotEmpty(t, user.PasswordHash, "federated users get a generated password hash")
}

func TestGoogleLogin_SecondLoginReusesUser(t *testing.T) {
	store := newFakeUserStore()
	google := &fakeGoogle{token: "valid-token", email: "g@x.com", name: "G User"}
	svc := newTestAuthService(t, store, google, 30*time.Minute)

	_, err := svc.GoogleLogin(context.Background(), "valid-token")
	require.NoError(t, err)

	first, err := store.GetUserByEmail(context.Background(), "g@x.com")
	require.NoError(t, err)

	_, err = svc.GoogleLogin(context.Background(), "valid-token")
	require.NoError(t, err)

	assert.Len(t, store.users, 1, "second google login must not create a duplicate")
	second, err := store.GetUserByEmail(context.Background(), "g@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	store := newFakeUserStore()
	google := &fakeGoogle{token: "valid-token", email: "g@x.com", name: "G User"}
	svc := newTestAuthService(t, store, google, time.Minute)

	_, err := svc.GoogleLogin(context.Background(), "forged")
	assert.ErrorIs(t, err, auth.ErrInvalidGoogleToken)
	assert.Empty(t, store.users)
}

func TestGoogleLogin_TokenResolvesViaCurrentUser(t *testing.T) {
	store := newFakeUserStore()
	google := &fakeGoogle{token: "valid-token", email: "g@x.com", name: "G User"}
	svc := newTestAuthService(t, store, google, 30*time.Minute)

	token, err := svc.GoogleLogin(context.Background(), "valid-token")
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "g@x.com", user.Email)
}

func TestSignup_StoreFailurePropagates(t *testing.T) {
	svc := newTestAuthService(t, &failingUserStore{}, nil, time.Minute)

	_, err := svc.Signup(context.Background(), "a@x.com", "A", "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
}

// failingUserStore returns an infrastructure error on every call.
type failingUserStore struct{}

var errStoreDown = errors.New("connection refused")

func (f *failingUserStore) CreateUser(ctx context.Context, user *model.User) error {
	return errStoreDown
}

func (f *failingUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, errStoreDown
}

package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/auth-service/core/domain/models"
	"employee-portal/internal/auth-service/core/myerrors"
	"employee-portal/internal/config"
	"employee-portal/internal/mylogger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===================== fakes for driven ports =====================

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by user id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (r *fakeUserRepo) CreateUnverified(ctx context.Context, user models.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.users {
		if existing.Email != user.Email {
			continue
		}
		if existing.IsEmailVerified {
			return "", myerrors.ErrEmailRegistered
		}
		existing.UserName = user.UserName
		existing.PasswordHash = user.PasswordHash
		existing.TokenHash = user.TokenHash
		existing.TokenExpiry = user.TokenExpiry
		r.users[id] = existing
		return id, nil
	}

	r.users[user.UserID] = user
	return user.UserID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, myerrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return models.User{}, myerrors.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) MarkEmailVerified(ctx context.Context, tokenHash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.IsEmailVerified || u.TokenHash == nil || *u.TokenHash != tokenHash {
			continue
		}
		if u.TokenExpiry == nil || !u.TokenExpiry.After(time.Now()) {
			continue
		}
		u.IsEmailVerified = true
		u.TokenHash = nil
		u.TokenExpiry = nil
		r.users[id] = u
		return id, nil
	}
	return "", myerrors.ErrTokenInvalidOrExpired
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserID]; !ok {
		return myerrors.ErrUserNotFound
	}
	// The email column is unique; another user owning it fails the write.
	for id, u := range r.users {
		if id != user.UserID && u.Email == user.Email {
			return myerrors.ErrEmailRegistered
		}
	}
	r.users[user.UserID] = user
	return nil
}

type fakeMailQueue struct {
	mu       sync.Mutex
	messages []dto.VerificationEmail
	failWith error
}

func (q *fakeMailQueue) PublishVerificationEmail(ctx context.Context, msg dto.VerificationEmail) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

func (q *fakeMailQueue) ConsumeVerificationEmails(ctx context.Context) (<-chan dto.VerificationEmail, error) {
	ch := make(chan dto.VerificationEmail)
	close(ch)
	return ch, nil
}

func (q *fakeMailQueue) Close() error { return nil }

func (q *fakeMailQueue) last(t *testing.T) dto.VerificationEmail {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.NotEmpty(t, q.messages)
	return q.messages[len(q.messages)-1]
}

type fakeMediaStore struct {
	uploads    int
	deleted    []string
	failUpload bool
	failDelete bool
}

func (m *fakeMediaStore) Upload(ctx context.Context, img dto.ImageUpload) (string, string, error) {
	if m.failUpload {
		return "", "", errors.New("provider unavailable")
	}
	m.uploads++
	return "https://media.test/profiles/new.png", "profiles/new.png", nil
}

func (m *fakeMediaStore) Delete(ctx context.Context, publicID string) error {
	if m.failDelete {
		return errors.New("provider unavailable")
	}
	m.deleted = append(m.deleted, publicID)
	return nil
}

// ===================== helpers =====================

type fixture struct {
	svc   *AuthService
	repo  *fakeUserRepo
	queue *fakeMailQueue
	media *fakeMediaStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mylog, err := mylogger.New(mylogger.LevelError)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.Appconfig{
			JwtSecret: "test-secret",
			ClientURL: "http://localhost:5173",
		},
	}

	repo := newFakeUserRepo()
	queue := &fakeMailQueue{}
	media := &fakeMediaStore{}

	return &fixture{
		svc:   NewAuthService(context.Background(), cfg, repo, queue, media, mylog),
		repo:  repo,
		queue: queue,
		media: media,
	}
}

func rawTokenFromMail(t *testing.T, msg dto.VerificationEmail) string {
	t.Helper()
	u, err := url.Parse(msg.VerifyURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func registerAndVerify(t *testing.T, f *fixture, email, password, userName string) string {
	t.Helper()
	ctx := context.Background()

	id, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: userName,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyEmail(ctx, rawTokenFromMail(t, f.queue.last(t))))
	return id
}

// ===================== Register =====================

func TestRegister_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	user, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified)
	assert.Equal(t, models.RoleUser, user.Role)
	require.NotNil(t, user.TokenHash)
	require.NotNil(t, user.TokenExpiry)
	assert.WithinDuration(t, time.Now().Add(VerificationTokenTTL), *user.TokenExpiry, time.Minute)

	// Raw token goes out in the mail, only its hash is stored
	msg := f.queue.last(t)
	assert.Equal(t, "alice@x.com", msg.To)
	rawToken := rawTokenFromMail(t, msg)
	assert.Equal(t, hashVerificationToken(rawToken), *user.TokenHash)
	assert.NotContains(t, *user.TokenHash, rawToken)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.RegistrationRequest
	}{
		{"empty name", dto.RegistrationRequest{Email: "alice@x.com", Password: "pw123456"}},
		{"bad email", dto.RegistrationRequest{UserName: "alice", Email: "not-an-email", Password: "pw123456"}},
		{"short password", dto.RegistrationRequest{UserName: "alice", Email: "alice@x.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, myerrors.ErrValidation)
		})
	}
}

func TestRegister_VerifiedEmailConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")

	_, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "mallory",
		Email:    "alice@x.com",
		Password: "pw999999",
	})
	assert.ErrorIs(t, err, myerrors.ErrEmailRegistered)
}

func TestRegister_UnverifiedEmailIsRefreshed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	firstID, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	staleToken := rawTokenFromMail(t, f.queue.last(t))

	secondID, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice2",
		Email:    "alice@x.com",
		Password: "pw654321",
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID, "unverified row is reused, not duplicated")

	// The old token was replaced by the re-registration
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, staleToken), myerrors.ErrTokenInvalidOrExpired)
	assert.NoError(t, f.svc.VerifyEmail(ctx, rawTokenFromMail(t, f.queue.last(t))))
}

func TestRegister_MailFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.queue.failWith = errors.New("broker down")
	ctx := context.Background()

	id, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err, "mail delivery failure must not fail registration")

	_, err = f.repo.GetByID(ctx, id)
	assert.NoError(t, err, "user row persists regardless")
}

// ===================== VerifyEmail =====================

func TestVerifyEmail_SucceedsOnceThenFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	rawToken := rawTokenFromMail(t, f.queue.last(t))

	require.NoError(t, f.svc.VerifyEmail(ctx, rawToken))

	user, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, user.IsEmailVerified)
	assert.Nil(t, user.TokenHash)
	assert.Nil(t, user.TokenExpiry)

	// Second redemption of the same token fails the same way as an
	// unknown one.
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, rawToken), myerrors.ErrTokenInvalidOrExpired)
}

func TestVerifyEmail_UnknownOrEmptyToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "no-such-token"), myerrors.ErrTokenInvalidOrExpired)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, ""), myerrors.ErrTokenInvalidOrExpired)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	rawToken := rawTokenFromMail(t, f.queue.last(t))

	// Push the expiry into the past; the hash still matches exactly.
	user, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	expired := time.Now().Add(-time.Minute)
	user.TokenExpiry = &expired
	require.NoError(t, f.repo.UpdateProfile(ctx, user))

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, rawToken), myerrors.ErrTokenInvalidOrExpired)
}

// ===================== Login =====================

func TestLogin_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")

	token, err := f.svc.Login(ctx, dto.LoginRequest{Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)

	claims, err := f.svc.Sessions().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegistrationRequest{
		UserName: "alice",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	// Correct password, but the email was never verified.
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "alice@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, myerrors.ErrEmailNotVerified)
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")

	// Unknown email and wrong password must yield the same error, so
	// responses cannot be used to enumerate registered emails.
	_, errUnknown := f.svc.Login(ctx, dto.LoginRequest{Email: "nobody@x.com", Password: "pw123456"})
	_, errWrongPw := f.svc.Login(ctx, dto.LoginRequest{Email: "alice@x.com", Password: "pw000000"})

	assert.ErrorIs(t, errUnknown, myerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, myerrors.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

// ===================== Profile =====================

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")

	profile, err := f.svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, dto.UserProfile{
		UserID:   id,
		Email:    "alice@x.com",
		UserName: "alice",
		Role:     models.RoleUser,
	}, profile)

	_, err = f.svc.GetProfile(ctx, "no-such-user")
	assert.ErrorIs(t, err, myerrors.ErrUserNotFound)
}

func TestUpdateProfile_SelfEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")
	actor := dto.Claims{UserID: id, Email: "alice@x.com", Role: models.RoleUser}

	profile, err := f.svc.UpdateProfile(ctx, actor, id, dto.ProfileUpdate{
		UserName: "alice-renamed",
		Password: "newpw9999",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", profile.UserName)

	// Password was re-hashed
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "alice@x.com", Password: "newpw9999"})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "alice@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, myerrors.ErrInvalidCredentials)
}

func TestUpdateProfile_EmailOwnedByAnotherUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceID := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")
	registerAndVerify(t, f, "bob@x.com", "pw123456", "bob")

	actor := dto.Claims{UserID: aliceID, Role: models.RoleUser}

	_, err := f.svc.UpdateProfile(ctx, actor, aliceID, dto.ProfileUpdate{Email: "bob@x.com"})
	assert.ErrorIs(t, err, myerrors.ErrEmailRegistered)

	// The profile keeps its original email.
	kept, err := f.repo.GetByID(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", kept.Email)
}

func TestUpdateProfile_Policy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceID := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")
	bobID := registerAndVerify(t, f, "bob@x.com", "pw123456", "bob")

	alice := dto.Claims{UserID: aliceID, Role: models.RoleUser}
	admin := dto.Claims{UserID: "admin-1", Role: models.RoleAdmin}

	// USER editing someone else's profile
	_, err := f.svc.UpdateProfile(ctx, alice, bobID, dto.ProfileUpdate{UserName: "hijacked"})
	assert.ErrorIs(t, err, myerrors.ErrForbidden)

	// USER escalating their own role
	_, err = f.svc.UpdateProfile(ctx, alice, aliceID, dto.ProfileUpdate{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, myerrors.ErrForbidden)

	// ADMIN may do both
	profile, err := f.svc.UpdateProfile(ctx, admin, bobID, dto.ProfileUpdate{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	// Unknown role is rejected even for ADMIN
	_, err = f.svc.UpdateProfile(ctx, admin, bobID, dto.ProfileUpdate{Role: "SUPERUSER"})
	assert.ErrorIs(t, err, myerrors.ErrValidation)
}

func TestUpdateProfile_ImageReplacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")
	actor := dto.Claims{UserID: id, Role: models.RoleUser}

	// Seed an existing image
	user, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	oldURL, oldID := "https://media.test/profiles/old.png", "profiles/old.png"
	user.ProfileImage = &oldURL
	user.ProfileImagePublicID = &oldID
	require.NoError(t, f.repo.UpdateProfile(ctx, user))

	img := &dto.ImageUpload{Content: []byte("png"), ContentType: "image/png", Filename: "me.png"}

	profile, err := f.svc.UpdateProfile(ctx, actor, id, dto.ProfileUpdate{Image: img})
	require.NoError(t, err)
	assert.Equal(t, "https://media.test/profiles/new.png", profile.ProfileImage)
	assert.Equal(t, []string{"profiles/old.png"}, f.media.deleted)
}

func TestUpdateProfile_DeleteFailureTolerated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")
	actor := dto.Claims{UserID: id, Role: models.RoleUser}

	user, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	oldURL, oldID := "https://media.test/profiles/old.png", "profiles/old.png"
	user.ProfileImage = &oldURL
	user.ProfileImagePublicID = &oldID
	require.NoError(t, f.repo.UpdateProfile(ctx, user))

	f.media.failDelete = true
	img := &dto.ImageUpload{Content: []byte("png"), ContentType: "image/png", Filename: "me.png"}

	profile, err := f.svc.UpdateProfile(ctx, actor, id, dto.ProfileUpdate{Image: img})
	require.NoError(t, err, "old asset removal failure must not block the update")
	assert.Equal(t, "https://media.test/profiles/new.png", profile.ProfileImage)
}

func TestUpdateProfile_UploadFailureLeavesImageUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := registerAndVerify(t, f, "alice@x.com", "pw123456", "alice")
	actor := dto.Claims{UserID: id, Role: models.RoleUser}

	user, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	oldURL, oldID := "https://media.test/profiles/old.png", "profiles/old.png"
	user.ProfileImage = &oldURL
	user.ProfileImagePublicID = &oldID
	require.NoError(t, f.repo.UpdateProfile(ctx, user))

	f.media.failUpload = true
	img := &dto.ImageUpload{Content: []byte("png"), ContentType: "image/png", Filename: "me.png"}

	_, err = f.svc.UpdateProfile(ctx, actor, id, dto.ProfileUpdate{Image: img})
	assert.ErrorIs(t, err, myerrors.ErrUploadFailed)

	kept, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, kept.ProfileImage)
	assert.Equal(t, oldURL, *kept.ProfileImage)
	assert.Empty(t, f.media.deleted)
}

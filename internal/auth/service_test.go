package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/store/memstore"
	"github.com/redmonkez12/matcha/internal/token"
)

type sentLink struct {
	to   string
	kind string
	link string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentLink
	err  error
}

func (n *fakeNotifier) SendVerificationEmail(_ context.Context, to, link string) error {
	return n.record(to, "verify", link)
}

func (n *fakeNotifier) SendPasswordResetEmail(_ context.Context, to, link string) error {
	return n.record(to, "reset", link)
}

func (n *fakeNotifier) record(to, kind, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentLink{to: to, kind: kind, link: link})
	return nil
}

// lastToken extracts the token query parameter of the most recent link.
func (n *fakeNotifier) lastToken(t *testing.T, kind string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == kind {
			u, err := url.Parse(n.sent[i].link)
			require.NoError(t, err)
			return u.Query().Get("token")
		}
	}
	t.Fatalf("no %s email sent", kind)
	return ""
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	svc      *Service
	store    *memstore.Store
	notifier *fakeNotifier
}

func newFixture() *fixture {
	st := memstore.New()
	notifier := &fakeNotifier{}
	svc := NewService(st, token.NewService(nil), notifier, fastHasher, logging.NewNop(), Config{
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		SessionTTL:      time.Hour,
		FrontendURL:     "http://localhost:5173/",
	})
	return &fixture{svc: svc, store: st, notifier: notifier}
}

func validInput(email, username string) RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  username,
		Email:     email,
		Password:  "Abcdef1!",
	}
}

func (f *fixture) registerVerified(t *testing.T, email, username string) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.svc.Register(ctx, validInput(email, username))
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyEmail(ctx, f.notifier.lastToken(t, "verify")))
	return u
}

func TestRegisterVerifyScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u, err := f.svc.Register(ctx, validInput("a@b.com", "ada"))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.False(t, u.EmailVerified)

	_, err = f.svc.Register(ctx, validInput("A@B.com", "other"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "wrong-token"), domain.ErrInvalidOrExpiredToken)

	raw := f.notifier.lastToken(t, "verify")
	require.NoError(t, f.svc.VerifyEmail(ctx, raw))

	stored, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.NotNil(t, stored.EmailVerifiedAt)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, raw), domain.ErrInvalidOrExpiredToken)
}

func TestRegisterLinkPointsAtFrontend(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), validInput("a@b.com", "ada"))
	require.NoError(t, err)

	require.Equal(t, 1, f.notifier.count())
	assert.True(t, strings.HasPrefix(f.notifier.sent[0].link, "http://localhost:5173/verify-email?token="))
	assert.Equal(t, "a@b.com", f.notifier.sent[0].to)
}

func TestRegisterValidatesBeforeWriting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"blank first name", RegisterInput{FirstName: "  ", LastName: "L", Username: "ada", Email: "a@b.com", Password: "Abcdef1!"}, "first_name"},
		{"bad email", RegisterInput{FirstName: "A", LastName: "L", Username: "ada", Email: "not-an-email", Password: "Abcdef1!"}, "email"},
		{"weak password", RegisterInput{FirstName: "A", LastName: "L", Username: "ada", Email: "a@b.com", Password: "abcdefgh"}, "password"},
		{"bad username", RegisterInput{FirstName: "A", LastName: "L", Username: "a b", Email: "a@b.com", Password: "Abcdef1!"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err := f.store.Users().GetByEmail(ctx, "a@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.notifier.count())
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validInput("a@b.com", "Ada"))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, validInput("c@d.com", "ada"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)
}

func TestRegisterSurvivesNotifierFailure(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp down")

	u, err := f.svc.Register(context.Background(), validInput("a@b.com", "ada"))
	require.NoError(t, err)

	_, err = f.store.Users().GetByID(context.Background(), u.ID)
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validInput("a@b.com", "ada"))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ada", "Abcdef1!")
	assert.ErrorIs(t, err, domain.ErrEmailNotVerified)

	require.NoError(t, f.svc.VerifyEmail(ctx, f.notifier.lastToken(t, "verify")))

	_, err = f.svc.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "nobody", "Abcdef1!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	session, err := f.svc.Login(ctx, "ADA", "Abcdef1!")
	require.NoError(t, err)

	byEmail, err := f.svc.Login(ctx, " A@B.com ", "Abcdef1!")
	require.NoError(t, err)
	assert.NotEqual(t, session.Secret, byEmail.Secret)

	userID, err := f.svc.Authenticate(ctx, session.Secret)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, userID)

	require.NoError(t, f.svc.Logout(ctx, session.Secret))
	_, err = f.svc.Authenticate(ctx, session.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Authenticate(ctx, byEmail.Secret)
	assert.NoError(t, err)
}

// countingHasher records which hashes Verify was asked to check.
type countingHasher struct {
	Hasher
	verified []string
}

func (c *countingHasher) Verify(encodedHash, password string) bool {
	c.verified = append(c.verified, encodedHash)
	return c.Hasher.Verify(encodedHash, password)
}

func TestLoginUnknownAccountStillVerifiesAHash(t *testing.T) {
	hasher := &countingHasher{Hasher: fastHasher}
	svc := NewService(memstore.New(), token.NewService(nil), &fakeNotifier{}, hasher, logging.NewNop(), Config{SessionTTL: time.Hour})
	ctx := context.Background()

	for _, login := range []string{"nobody", "nobody@example.com"} {
		_, err := svc.Login(ctx, login, "Abcdef1!")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	require.Len(t, hasher.verified, 2)
	for _, h := range hasher.verified {
		assert.True(t, strings.HasPrefix(h, "$argon2id$"), h)
	}
}

func TestLoginRehashesLegacyBcrypt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.registerVerified(t, "a@b.com", "ada")

	legacy, err := bcrypt.GenerateFromPassword([]byte("Legacy1!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.Users().UpdatePassword(ctx, u.ID, string(legacy)))

	_, err = f.svc.Login(ctx, "ada", "Legacy1!")
	require.NoError(t, err)

	stored, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	_, err = f.svc.Login(ctx, "ada", "Legacy1!")
	assert.NoError(t, err)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := newFixture()
	for _, secret := range []string{"", "x", strings.Repeat("A", 43)} {
		_, err := f.svc.Authenticate(context.Background(), secret)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.registerVerified(t, "a@b.com", "ada")

	session, err := f.svc.Login(ctx, "ada", "Abcdef1!")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "nobody@b.com"))
	before := f.notifier.count()

	require.NoError(t, f.svc.ForgotPassword(ctx, "A@b.com"))
	require.Equal(t, before+1, f.notifier.count())
	raw := f.notifier.lastToken(t, "reset")

	err = f.svc.ResetPassword(ctx, raw, "weak")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "new_password", verr.Field)

	require.NoError(t, f.svc.ResetPassword(ctx, raw, "NewPass2@"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, raw, "NewPass3#"), domain.ErrInvalidOrExpiredToken)

	_, err = f.svc.Authenticate(ctx, session.Secret)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "reset ends existing sessions")

	_, err = f.svc.Login(ctx, "ada", "Abcdef1!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "ada", "NewPass2@")
	assert.NoError(t, err)
}

func TestForgotPasswordReplacesOutstandingToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.registerVerified(t, "a@b.com", "ada")

	require.NoError(t, f.svc.ForgotPassword(ctx, "a@b.com"))
	first := f.notifier.lastToken(t, "reset")
	require.NoError(t, f.svc.ForgotPassword(ctx, "a@b.com"))
	second := f.notifier.lastToken(t, "reset")

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, first, "NewPass2@"), domain.ErrInvalidOrExpiredToken)
	assert.NoError(t, f.svc.ResetPassword(ctx, second, "NewPass2@"))
}

func TestResetTokenIsNotAVerificationToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validInput("a@b.com", "ada"))
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, "a@b.com"))

	reset := f.notifier.lastToken(t, "reset")
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, reset), domain.ErrInvalidOrExpiredToken)
}

func TestResendVerification(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validInput("a@b.com", "ada"))
	require.NoError(t, err)
	original := f.notifier.lastToken(t, "verify")

	require.NoError(t, f.svc.ResendVerification(ctx, "nobody@b.com"))
	assert.Equal(t, 1, f.notifier.count())

	require.NoError(t, f.svc.ResendVerification(ctx, "a@b.com"))
	require.Equal(t, 2, f.notifier.count())
	fresh := f.notifier.lastToken(t, "verify")

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, original), domain.ErrInvalidOrExpiredToken)
	require.NoError(t, f.svc.VerifyEmail(ctx, fresh))

	require.NoError(t, f.svc.ResendVerification(ctx, "a@b.com"))
	assert.Equal(t, 2, f.notifier.count(), "verified accounts get nothing")

	err = f.svc.ResendVerification(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConcurrentVerifyHasOneWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validInput("a@b.com", "ada"))
	require.NoError(t, err)
	raw := f.notifier.lastToken(t, "verify")

	const callers = 6
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.VerifyEmail(ctx, raw)
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
}

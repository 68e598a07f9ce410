package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/client"
	"github.com/dmitrijs2005/gophboard/internal/client/debounce"
	"github.com/dmitrijs2005/gophboard/internal/client/drafts"
	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/session"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/dmitrijs2005/gophboard/internal/testutil/fakeapi"
	"github.com/dmitrijs2005/gophboard/internal/testutil/kvtest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeClient struct {
	CloseErr    error
	RegisterErr error

	LoginRet models.Session
	LoginErr error

	LastRegister  models.Credentials
	RegisterCalls int

	LastLoginEmail    string
	LastLoginPassword string
}

func (f *fakeClient) Close() error { return f.CloseErr }

func (f *fakeClient) Register(_ context.Context, creds models.Credentials) error {
	f.RegisterCalls++
	f.LastRegister = creds
	return f.RegisterErr
}

func (f *fakeClient) Login(_ context.Context, email, password string) (models.Session, error) {
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginRet, f.LoginErr
}

type fakeSessions struct {
	current      *models.Session
	EstablishErr error
	ClearErr     error
}

func (f *fakeSessions) Restore(context.Context) (*models.Session, bool) {
	return f.current, f.current != nil
}

func (f *fakeSessions) Establish(_ context.Context, s models.Session) error {
	if f.EstablishErr != nil {
		return f.EstablishErr
	}
	f.current = &s
	return nil
}

func (f *fakeSessions) Clear(context.Context) error {
	f.current = nil
	return f.ClearErr
}

type fakeLikes struct {
	LoadErr    error
	LoadCalls  int
	ClearCalls int
}

func (f *fakeLikes) Load(context.Context) (models.LikeSet, error) {
	f.LoadCalls++
	return models.NewLikeSet(), f.LoadErr
}

func (f *fakeLikes) Clear() { f.ClearCalls++ }

// ---- TESTS ----

func TestValidateRegistration(t *testing.T) {
	valid := models.Credentials{Email: "ann@example.com", Password: "secret", DisplayName: "ann"}

	tests := []struct {
		name    string
		mutate  func(c *models.Credentials)
		confirm string
		field   string
	}{
		{name: "valid", confirm: "secret"},
		{name: "empty email", mutate: func(c *models.Credentials) { c.Email = " " }, confirm: "secret", field: "email"},
		{name: "no at sign", mutate: func(c *models.Credentials) { c.Email = "ann.example.com" }, confirm: "secret", field: "email"},
		{name: "display form", mutate: func(c *models.Credentials) { c.Email = "Ann <ann@example.com>" }, confirm: "secret", field: "email"},
		{name: "no domain dot", mutate: func(c *models.Credentials) { c.Email = "ann@localhost" }, confirm: "secret", field: "email"},
		{name: "no nickname", mutate: func(c *models.Credentials) { c.DisplayName = "" }, confirm: "secret", field: "nickname"},
		{name: "short password", mutate: func(c *models.Credentials) { c.Password = "12345" }, confirm: "12345", field: "password"},
		{name: "mismatch", confirm: "secreT", field: "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			err := ValidateRegistration(c, tt.confirm)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRegister_InvalidFormIssuesNoRequest(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc, &fakeSessions{}, &fakeLikes{}, logging.Nop())

	err := svc.Register(context.Background(), models.Credentials{Email: "x", Password: "secret", DisplayName: "x"}, "secret")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, fc.RegisterCalls)
}

func TestRegister_DelegatesToClient(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc, &fakeSessions{}, &fakeLikes{}, logging.Nop())

	err := svc.Register(context.Background(), models.Credentials{Email: " ann@example.com ", Password: "secret", DisplayName: " ann "}, "secret")
	require.NoError(t, err)
	assert.Equal(t, models.Credentials{Email: "ann@example.com", Password: "secret", DisplayName: "ann"}, fc.LastRegister)
}

func TestRegister_ClientError_Wrapped(t *testing.T) {
	fc := &fakeClient{RegisterErr: &client.APIError{StatusCode: 400, Message: "email taken"}}
	svc := NewAuthService(fc, &fakeSessions{}, &fakeLikes{}, logging.Nop())

	err := svc.Register(context.Background(), models.Credentials{Email: "ann@example.com", Password: "secret", DisplayName: "ann"}, "secret")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.True(t, strings.HasPrefix(err.Error(), "register error:"))
}

func TestLogin_Success_EstablishesSessionAndLoadsLikes(t *testing.T) {
	sess := models.Session{IdentityID: 7, DisplayName: "ann", Token: "tok"}
	fc := &fakeClient{LoginRet: sess}
	fs := &fakeSessions{}
	fl := &fakeLikes{}
	svc := NewAuthService(fc, fs, fl, logging.Nop())

	got, err := svc.Login(context.Background(), " ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
	assert.Equal(t, "ann@example.com", fc.LastLoginEmail)
	require.NotNil(t, fs.current)
	assert.Equal(t, sess, *fs.current)
	assert.Equal(t, 1, fl.LoadCalls)
}

func TestLogin_LikesFailureDoesNotFailLogin(t *testing.T) {
	fc := &fakeClient{LoginRet: models.Session{IdentityID: 7, Token: "tok"}}
	fl := &fakeLikes{LoadErr: common.ErrNetwork}
	svc := NewAuthService(fc, &fakeSessions{}, fl, logging.Nop())

	_, err := svc.Login(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
}

func TestLogin_Errors(t *testing.T) {
	t.Run("empty form", func(t *testing.T) {
		svc := NewAuthService(&fakeClient{}, &fakeSessions{}, &fakeLikes{}, logging.Nop())
		_, err := svc.Login(context.Background(), "", "")
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		fc := &fakeClient{LoginErr: &client.APIError{StatusCode: 401, Message: "bad credentials"}}
		fs := &fakeSessions{}
		fl := &fakeLikes{}
		svc := NewAuthService(fc, fs, fl, logging.Nop())

		_, err := svc.Login(context.Background(), "ann@example.com", "wrong")
		require.ErrorIs(t, err, common.ErrUnauthenticated)
		assert.True(t, strings.HasPrefix(err.Error(), "login error:"))
		assert.Nil(t, fs.current)
		assert.Zero(t, fl.LoadCalls)
	})

	t.Run("session not saved", func(t *testing.T) {
		fc := &fakeClient{LoginRet: models.Session{IdentityID: 7, Token: "tok"}}
		svc := NewAuthService(fc, &fakeSessions{EstablishErr: errors.New("disk full")}, &fakeLikes{}, logging.Nop())

		_, err := svc.Login(context.Background(), "ann@example.com", "secret")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "session saving error:"))
	})
}

func TestLogout(t *testing.T) {
	fs := &fakeSessions{current: &models.Session{IdentityID: 1, Token: "t"}}
	fl := &fakeLikes{}
	svc := NewAuthService(&fakeClient{}, fs, fl, logging.Nop())

	require.NoError(t, svc.Logout(context.Background()))
	assert.Nil(t, fs.current)
	assert.Equal(t, 1, fl.ClearCalls)
}

func TestRestore(t *testing.T) {
	fl := &fakeLikes{}
	svc := NewAuthService(&fakeClient{}, &fakeSessions{}, fl, logging.Nop())
	_, ok := svc.Restore(context.Background())
	assert.False(t, ok)
	assert.Zero(t, fl.LoadCalls)

	fs := &fakeSessions{current: &models.Session{IdentityID: 3, Token: "t"}}
	svc = NewAuthService(&fakeClient{}, fs, fl, logging.Nop())
	sess, ok := svc.Restore(context.Background())
	require.True(t, ok)
	assert.EqualValues(t, 3, sess.IdentityID)
	assert.Equal(t, 1, fl.LoadCalls)
}

func TestClose_Delegates(t *testing.T) {
	svc := NewAuthService(&fakeClient{CloseErr: errors.New("boom")}, &fakeSessions{}, &fakeLikes{}, logging.Nop())
	require.EqualError(t, svc.Close(), "boom")
}

func TestLogoutKeepsDraft(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	_, _ = api.SeedUser("ann@example.com", "secret", "ann")

	kv, path := kvtest.Open(t)
	sessions := session.NewStore(kv, logging.Nop())
	rc := client.NewRESTClient(api.URL(), 5*time.Second, sessions)
	t.Cleanup(func() { _ = rc.Close() })
	cache := likes.NewCache(rc, sessions, logging.Nop())
	svc := NewAuthService(rc, sessions, cache, logging.Nop())

	_, err := svc.Login(ctx, "ann@example.com", "secret")
	require.NoError(t, err)

	composer := drafts.NewComposer(kv, rc, &ui.Recorder{}, logging.Nop(), debounce.New(clockwork.NewFakeClock(), time.Second))
	composer.SetTitle("Unfinished")
	composer.SetBody("<p>thoughts</p>")
	composer.Close()
	_, err = composer.SelectImage(models.Image{Name: "a.png", Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	_, ok := sessions.Current()
	require.False(t, ok)

	// Next process start: the draft is still there and a login brings the user back to it.
	kv2 := kvtest.Reopen(t, path)
	sessions2 := session.NewStore(kv2, logging.Nop())
	rc2 := client.NewRESTClient(api.URL(), 5*time.Second, sessions2)
	t.Cleanup(func() { _ = rc2.Close() })
	svc2 := NewAuthService(rc2, sessions2, likes.NewCache(rc2, sessions2, logging.Nop()), logging.Nop())

	_, ok = svc2.Restore(ctx)
	require.False(t, ok, "logout must not survive as a session")
	_, err = svc2.Login(ctx, "ann@example.com", "secret")
	require.NoError(t, err)

	restored := drafts.NewComposer(kv2, rc2, &ui.Recorder{}, logging.Nop(), debounce.New(clockwork.NewFakeClock(), time.Second)).Restore(ctx)
	assert.Equal(t, models.Draft{Title: "Unfinished", Body: "<p>thoughts</p>"}, restored)
}

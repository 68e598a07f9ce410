package profile

import (
	"context"
	"net/http"
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

type env struct {
	api      *fakeapi.Server
	sessions *session.Store
	likes    *likes.Cache
	drafts   *drafts.Composer
	nav      *ui.Recorder
	ctrl     *Controller
	userID   int64
	postID   int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	e := &env{api: fakeapi.New(t), nav: &ui.Recorder{}}
	var tok string
	e.userID, tok = e.api.SeedUser("ann@example.com", "pw1234", "ann")
	e.postID = e.api.SeedPost(e.userID, "Post", "body")
	e.api.SeedLike(e.userID, e.postID)

	kv, _ := kvtest.Open(t)
	e.sessions = session.NewStore(kv, logging.Nop())
	require.NoError(t, e.sessions.Establish(ctx, models.Session{IdentityID: e.userID, DisplayName: "ann", Token: tok}))

	rc := client.NewRESTClient(e.api.URL(), 5*time.Second, e.sessions)
	t.Cleanup(func() { _ = rc.Close() })

	e.likes = likes.NewCache(rc, e.sessions, logging.Nop())
	_, err := e.likes.Load(ctx)
	require.NoError(t, err)

	e.drafts = drafts.NewComposer(kv, rc, e.nav, logging.Nop(), debounce.New(clockwork.NewFakeClock(), time.Second))
	e.ctrl = NewController(rc, e.sessions, e.likes, e.drafts, e.nav, logging.Nop())
	return e
}

func png() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
}

func TestUpdateNickname(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var seen []string
	e.sessions.Subscribe(func(s *models.Session) {
		if s != nil {
			seen = append(seen, s.DisplayName)
		}
	})

	require.NoError(t, e.ctrl.UpdateNickname(ctx, "  annie "))
	cur, _ := e.sessions.Current()
	assert.Equal(t, "annie", cur.DisplayName)
	assert.Equal(t, "annie", e.api.Nickname(e.userID))
	assert.Equal(t, []string{"annie"}, seen)
}

func TestUpdateNickname_SameValueIssuesNoRequest(t *testing.T) {
	e := newEnv(t)

	err := e.ctrl.UpdateNickname(context.Background(), "ann")
	require.ErrorIs(t, err, common.ErrNoChange)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.Zero(t, e.api.CallCount(http.MethodPut, "/api/user/nickname"))
}

func TestUpdateNickname_FailureLeavesSession(t *testing.T) {
	e := newEnv(t)
	e.api.FailNext(http.MethodPut, "/api/user/nickname", http.StatusInternalServerError)

	err := e.ctrl.UpdateNickname(context.Background(), "annie")
	require.ErrorIs(t, err, common.ErrNetwork)
	cur, _ := e.sessions.Current()
	assert.Equal(t, "ann", cur.DisplayName)
}

func TestUpdateNickname_Empty(t *testing.T) {
	e := newEnv(t)
	require.ErrorIs(t, e.ctrl.UpdateNickname(context.Background(), "   "), common.ErrValidation)
}

func TestAvatar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.ctrl.UploadAvatar(ctx)
	require.ErrorIs(t, err, common.ErrValidation, "nothing staged")
	assert.Zero(t, e.api.CallCount(http.MethodPost, "/api/user/avatar"))

	require.ErrorIs(t, e.ctrl.StageAvatar(models.Image{Name: "a.gif", Data: []byte("GIF89a\x01\x00")}), common.ErrValidation)
	require.NoError(t, e.ctrl.StageAvatar(models.Image{Name: "me.png", Data: png()}))
	staged, ok := e.ctrl.Staged()
	require.True(t, ok)
	assert.Equal(t, "image/png", staged.ContentType)

	url, err := e.ctrl.UploadAvatar(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, "me.png")
	cur, _ := e.sessions.Current()
	assert.Equal(t, url, cur.AvatarURL)
	_, ok = e.ctrl.Staged()
	assert.False(t, ok)

	require.ErrorIs(t, e.ctrl.RemoveAvatar(ctx, ui.NeverConfirm{}), common.ErrNotConfirmed)
	assert.Zero(t, e.api.CallCount(http.MethodDelete, "/api/user/avatar"))

	require.NoError(t, e.ctrl.RemoveAvatar(ctx, ui.AlwaysConfirm{}))
	cur, _ = e.sessions.Current()
	assert.Empty(t, cur.AvatarURL)
}

func TestUploadAvatar_FailureKeepsStagedFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.ctrl.StageAvatar(models.Image{Name: "me.png", Data: png()}))
	e.api.FailNext(http.MethodPost, "/api/user/avatar", http.StatusInternalServerError)

	_, err := e.ctrl.UploadAvatar(context.Background())
	require.ErrorIs(t, err, common.ErrNetwork)
	_, ok := e.ctrl.Staged()
	assert.True(t, ok)
	cur, _ := e.sessions.Current()
	assert.Empty(t, cur.AvatarURL)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("requires confirmation", func(t *testing.T) {
		e := newEnv(t)
		require.ErrorIs(t, e.ctrl.DeleteAccount(ctx, ui.NeverConfirm{}), common.ErrNotConfirmed)
		assert.True(t, e.api.HasUser(e.userID))
		_, ok := e.sessions.Current()
		assert.True(t, ok)
	})

	t.Run("invalidates session likes and draft", func(t *testing.T) {
		e := newEnv(t)
		e.drafts.SetTitle("half written")
		e.drafts.Close()
		require.True(t, e.likes.IsLiked(e.postID))

		var prompt string
		confirm := confirmFunc(func(p string) bool { prompt = p; return true })
		require.NoError(t, e.ctrl.DeleteAccount(ctx, confirm))

		assert.Equal(t, DeleteAccountPrompt, prompt)
		assert.False(t, e.api.HasUser(e.userID))
		_, ok := e.sessions.Current()
		assert.False(t, ok)
		assert.False(t, e.likes.IsLiked(e.postID))
		assert.True(t, e.drafts.Restore(ctx).IsZero())
		assert.Equal(t, ui.RouteLogin, e.nav.Last())
	})

	t.Run("failure keeps everything", func(t *testing.T) {
		e := newEnv(t)
		e.api.FailNext(http.MethodDelete, "/api/user", http.StatusInternalServerError)

		require.ErrorIs(t, e.ctrl.DeleteAccount(ctx, ui.AlwaysConfirm{}), common.ErrNetwork)
		_, ok := e.sessions.Current()
		assert.True(t, ok)
		assert.True(t, e.likes.IsLiked(e.postID))
	})
}

type confirmFunc func(prompt string) bool

func (f confirmFunc) Confirm(_ context.Context, prompt string) (bool, error) {
	return f(prompt), nil
}

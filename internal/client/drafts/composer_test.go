package drafts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/debounce"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/dmitrijs2005/gophboard/internal/testutil/kvtest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delay = time.Second

// png returns a fresh PNG header; staged images are wiped in place.
func png() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
}

type fakeAPI struct {
	mu        sync.Mutex
	uploads   int
	created   []models.NewPost
	uploadErr error
	createErr error
}

func (f *fakeAPI) UploadPostImage(_ context.Context, img models.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.test/" + img.Name, nil
}

func (f *fakeAPI) CreatePost(_ context.Context, p models.NewPost) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	if f.createErr != nil {
		return models.Post{}, f.createErr
	}
	return models.Post{ID: 77, Title: p.Title, Body: p.Body, ImageURL: p.ImageURL}, nil
}

type fixture struct {
	kv    *metadata.Store
	path  string
	clock *clockwork.FakeClock
	api   *fakeAPI
	nav   *ui.Recorder
	c     *Composer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv, path := kvtest.Open(t)
	return open(t, kv, path)
}

func open(t *testing.T, kv *metadata.Store, path string) *fixture {
	t.Helper()
	f := &fixture{kv: kv, path: path, clock: clockwork.NewFakeClock(), api: &fakeAPI{}, nav: &ui.Recorder{}}
	f.c = NewComposer(kv, f.api, f.nav, logging.Nop(), debounce.New(f.clock, delay))
	return f
}

// reload simulates a restart: a fresh composer over the same database file.
func (f *fixture) reload(t *testing.T) models.Draft {
	t.Helper()
	g := open(t, kvtest.Reopen(t, f.path), f.path)
	return g.c.Restore(context.Background())
}

func (f *fixture) waitSaved(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return f.c.Status() == StatusSaved }, time.Second, time.Millisecond)
}

func TestAutosave_PersistsAfterQuietPeriod(t *testing.T) {
	f := newFixture(t)

	f.c.SetTitle("x")
	f.c.SetBody("y")
	assert.Equal(t, models.Draft{Title: "x", Body: "y"}, f.c.Draft(), "edits are visible immediately")
	assert.Equal(t, StatusEditing, f.c.Status())

	f.clock.Advance(delay)
	f.waitSaved(t)

	assert.Equal(t, models.Draft{Title: "x", Body: "y"}, f.reload(t))
}

func TestAutosave_ReloadBeforeDelayLosesUnsavedEdits(t *testing.T) {
	f := newFixture(t)

	f.c.SetTitle("x")
	f.c.SetBody("y")
	f.clock.Advance(delay - time.Millisecond)

	assert.Equal(t, StatusEditing, f.c.Status())
	assert.True(t, f.reload(t).IsZero())
}

func TestAutosave_ReloadBeforeDelayReturnsPriorDraft(t *testing.T) {
	f := newFixture(t)

	f.c.SetTitle("old")
	f.clock.Advance(delay)
	f.waitSaved(t)

	f.c.SetTitle("new")
	assert.Equal(t, models.Draft{Title: "old"}, f.reload(t))
}

func TestAutosave_EachEditRestartsDelay(t *testing.T) {
	f := newFixture(t)

	f.c.SetTitle("a")
	f.clock.Advance(delay / 2)
	f.c.SetTitle("ab")
	f.clock.Advance(delay / 2)

	assert.Equal(t, StatusEditing, f.c.Status())
	assert.True(t, f.reload(t).IsZero(), "the first schedule was cancelled")

	f.clock.Advance(delay / 2)
	f.waitSaved(t)
	assert.Equal(t, models.Draft{Title: "ab"}, f.reload(t))
}

func TestStatus_NeverSavedWhilePending(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StatusIdle, f.c.Status())

	f.c.SetBody("b")
	f.clock.Advance(delay)
	f.waitSaved(t)

	f.c.SetBody("bb")
	assert.Equal(t, StatusEditing, f.c.Status())
}

func TestRestore_CorruptStorageIsEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kv.SetMany(context.Background(), map[string]string{KeyTitle: "t", KeyBody: "b"}))

	d := f.c.Restore(context.Background())
	assert.Equal(t, models.Draft{Title: "t", Body: "b"}, d)
	assert.Equal(t, StatusSaved, f.c.Status())

	_, err := kvtest.DB(t, f.path).Exec(`DROP TABLE metadata`)
	require.NoError(t, err)
	assert.True(t, f.c.Restore(context.Background()).IsZero())
	assert.Equal(t, StatusIdle, f.c.Status())
}

func TestSelectImage_LocalOnlyAndClearsRegistered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.c.SelectImage(models.Image{Name: "a.png", Data: png()})
	require.NoError(t, err)
	url, err := f.c.RegisterImage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.png", url)
	assert.Equal(t, 1, f.api.uploads)

	p, err := f.c.SelectImage(models.Image{Name: "b.png", Data: png()})
	require.NoError(t, err)
	assert.NotEmpty(t, p.Handle)
	assert.Equal(t, "image/png", p.Image.ContentType)
	assert.Equal(t, 1, f.api.uploads, "selecting does not upload")
	assert.Empty(t, f.c.Draft().ImageURL)

	f.clock.Advance(delay)
	f.waitSaved(t)
	assert.Empty(t, f.reload(t).ImageURL)
}

func TestSelectImage_RejectsNonImages(t *testing.T) {
	f := newFixture(t)

	_, err := f.c.SelectImage(models.Image{Name: "a.txt", Data: []byte("hello")})
	require.ErrorIs(t, err, common.ErrValidation)
	_, ok := f.c.Preview()
	assert.False(t, ok)
}

func TestRegisterImage(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a staged image", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.c.RegisterImage(ctx)
		require.ErrorIs(t, err, common.ErrValidation)
		assert.Zero(t, f.api.uploads)
	})

	t.Run("failure keeps the preview", func(t *testing.T) {
		f := newFixture(t)
		f.api.uploadErr = common.ErrNetwork
		_, err := f.c.SelectImage(models.Image{Name: "a.png", Data: png()})
		require.NoError(t, err)

		_, err = f.c.RegisterImage(ctx)
		require.ErrorIs(t, err, common.ErrNetwork)
		_, ok := f.c.Preview()
		assert.True(t, ok)
		assert.Empty(t, f.c.Draft().ImageURL)
	})

	t.Run("success replaces preview and persists", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.c.SelectImage(models.Image{Name: "a.png", Data: png()})
		require.NoError(t, err)

		url, err := f.c.RegisterImage(ctx)
		require.NoError(t, err)
		_, ok := f.c.Preview()
		assert.False(t, ok)
		assert.Equal(t, url, f.c.Draft().ImageURL)
		assert.Equal(t, url, f.reload(t).ImageURL, "persisted without waiting for autosave")
	})
}

func TestRemoveImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.c.SelectImage(models.Image{Name: "a.png", Data: png()})
	require.NoError(t, err)
	_, err = f.c.RegisterImage(ctx)
	require.NoError(t, err)

	data := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}
	p, err := f.c.SelectImage(models.Image{Name: "b.png", Data: data})
	require.NoError(t, err)

	require.NoError(t, f.c.RemoveImage(ctx))
	_, ok := f.c.Preview()
	assert.False(t, ok)
	assert.Empty(t, f.c.Draft().ImageURL)
	assert.Equal(t, make([]byte, len(data)), p.Image.Data[:len(data)], "preview bytes are released")
	assert.Empty(t, f.reload(t).ImageURL)
}

func TestPublish_SuccessClearsDraftEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.c.SetTitle("Hello")
	f.c.SetBody("<p>world</p>")
	f.clock.Advance(delay)
	f.waitSaved(t)
	_, err := f.c.SelectImage(models.Image{Name: "a.png", Data: png()})
	require.NoError(t, err)
	url, err := f.c.RegisterImage(ctx)
	require.NoError(t, err)

	post, err := f.c.Publish(ctx, "Hello", "<p>world</p>")
	require.NoError(t, err)
	assert.Equal(t, url, post.ImageURL)
	assert.Equal(t, []models.NewPost{{Title: "Hello", Body: "<p>world</p>", ImageURL: url}}, f.api.created)

	assert.True(t, f.c.Draft().IsZero())
	assert.Equal(t, StatusIdle, f.c.Status())
	assert.True(t, f.reload(t).IsZero())
	assert.Equal(t, ui.RoutePosts, f.nav.Last())
}

func TestPublish_PendingAutosaveDoesNotResurrectDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.c.SetTitle("Hello")
	f.c.SetBody("<p>world</p>")
	_, err := f.c.Publish(ctx, "Hello", "<p>world</p>")
	require.NoError(t, err)

	f.clock.Advance(2 * delay)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, f.reload(t).IsZero())
}

func TestPublish_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.api.createErr = common.ErrNetwork

	f.c.SetTitle("Hello")
	f.c.SetBody("<p>world</p>")
	f.clock.Advance(delay)
	f.waitSaved(t)

	_, err := f.c.Publish(ctx, "Hello", "<p>world</p>")
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.Equal(t, models.Draft{Title: "Hello", Body: "<p>world</p>"}, f.c.Draft())
	assert.Equal(t, models.Draft{Title: "Hello", Body: "<p>world</p>"}, f.reload(t))
	assert.Empty(t, f.nav.Routes())
}

func TestPublish_ValidationBlocksRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.c.Publish(context.Background(), "Title", "<p><br></p>")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = f.c.Publish(context.Background(), "", "body")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, f.api.created)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)

	f.c.SetTitle("t")
	f.clock.Advance(delay)
	f.waitSaved(t)

	require.NoError(t, f.c.Discard(context.Background()))
	assert.True(t, f.c.Draft().IsZero())
	assert.True(t, f.reload(t).IsZero())
}

func TestClose_FlushesPendingAutosave(t *testing.T) {
	f := newFixture(t)

	f.c.SetTitle("unsaved")
	f.c.Close()

	assert.Equal(t, StatusSaved, f.c.Status())
	assert.Equal(t, models.Draft{Title: "unsaved"}, f.reload(t))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "editing", StatusEditing.String())
	assert.Equal(t, "saving", StatusSaving.String())
	assert.Equal(t, "saved", StatusSaved.String())
	assert.Equal(t, "idle", StatusIdle.String())
}

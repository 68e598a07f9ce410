// Package drafts keeps the single in-progress post composition. Edits are
// visible immediately and written to local storage after a quiet period;
// images are staged locally and uploaded only when registered.
package drafts

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/debounce"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/filex"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/google/uuid"
)

// Persisted keys.
const (
	KeyTitle    = "draft_title"
	KeyBody     = "draft_body"
	KeyImageURL = "draft_image_url"
)

// Keys lists every persisted draft key.
var Keys = []string{KeyTitle, KeyBody, KeyImageURL}

type Status int

const (
	// StatusIdle means there is nothing unsaved.
	StatusIdle Status = iota
	StatusEditing
	StatusSaving
	StatusSaved
)

func (s Status) String() string {
	switch s {
	case StatusEditing:
		return "editing"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	default:
		return "idle"
	}
}

type API interface {
	UploadPostImage(ctx context.Context, img models.Image) (string, error)
	CreatePost(ctx context.Context, p models.NewPost) (models.Post, error)
}

// Preview is a locally staged image that has not been uploaded.
type Preview struct {
	Handle string
	Image  models.Image
}

type Composer struct {
	kv  metadata.KV
	api API
	nav ui.Navigator
	log logging.Logger
	deb *debounce.Debouncer

	// io orders storage writes against clearing the draft.
	io sync.Mutex

	mu         sync.Mutex
	draft      models.Draft
	status     Status
	preview    *Preview
	gen        uint64
	publishing bool
	uploading  bool
}

func NewComposer(kv metadata.KV, api API, nav ui.Navigator, log logging.Logger, deb *debounce.Debouncer) *Composer {
	return &Composer{kv: kv, api: api, nav: nav, log: log, deb: deb}
}

// Restore loads the persisted draft. Unreadable storage yields an empty draft.
func (c *Composer) Restore(ctx context.Context) models.Draft {
	var d models.Draft
	vals, err := c.kv.List(ctx)
	if err != nil {
		c.log.Warn(ctx, "persisted draft unreadable", "err", err)
	} else {
		d = models.Draft{Title: vals[KeyTitle], Body: vals[KeyBody], ImageURL: vals[KeyImageURL]}
	}

	c.deb.Cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.draft = d
	c.dropPreviewLocked()
	c.status = StatusIdle
	if !d.IsZero() {
		c.status = StatusSaved
	}
	return d
}

func (c *Composer) SetTitle(title string) {
	c.edit(func(d *models.Draft) { d.Title = title })
}

func (c *Composer) SetBody(body string) {
	c.edit(func(d *models.Draft) { d.Body = body })
}

// edit applies fn now and (re)starts the autosave delay.
func (c *Composer) edit(fn func(d *models.Draft)) {
	c.mu.Lock()
	fn(&c.draft)
	c.gen++
	gen := c.gen
	c.status = StatusEditing
	c.mu.Unlock()

	c.deb.Schedule(func() { c.persist(gen) })
}

func (c *Composer) persist(gen uint64) {
	ctx := context.Background()

	c.io.Lock()
	defer c.io.Unlock()

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	d := c.draft
	c.status = StatusSaving
	c.mu.Unlock()

	err := c.kv.SetMany(ctx, map[string]string{
		KeyTitle:    d.Title,
		KeyBody:     d.Body,
		KeyImageURL: d.ImageURL,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn(ctx, "draft autosave failed", "err", err)
		if gen == c.gen {
			c.status = StatusEditing
		}
		return
	}
	if gen == c.gen {
		c.status = StatusSaved
	}
}

// Status reports the autosave state. It is never StatusSaved while an
// autosave is pending.
func (c *Composer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Composer) Draft() models.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Preview returns the staged local image, if any.
func (c *Composer) Preview() (Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview == nil {
		return Preview{}, false
	}
	return *c.preview, true
}

// SelectImage stages img locally without any network call. It replaces any
// previous preview and forgets a previously registered image.
func (c *Composer) SelectImage(img models.Image) (Preview, error) {
	ct, err := filex.SniffImage(img.Data, filex.ImageTypes...)
	if err != nil {
		return Preview{}, common.Invalid("image", err.Error())
	}
	img.ContentType = ct

	p := &Preview{Handle: uuid.NewString(), Image: img}

	c.mu.Lock()
	c.dropPreviewLocked()
	c.preview = p
	hadRemote := c.draft.ImageURL != ""
	c.mu.Unlock()

	if hadRemote {
		c.edit(func(d *models.Draft) { d.ImageURL = "" })
	}
	return *p, nil
}

// RegisterImage uploads the staged image. On success the hosted URL replaces
// the preview and is persisted with the draft.
func (c *Composer) RegisterImage(ctx context.Context) (string, error) {
	c.mu.Lock()
	p := c.preview
	if p == nil {
		c.mu.Unlock()
		return "", common.Invalid("image", "select an image first")
	}
	if c.uploading {
		c.mu.Unlock()
		return "", common.ErrPending
	}
	c.uploading = true
	c.mu.Unlock()

	url, err := c.api.UploadPostImage(ctx, p.Image)

	c.mu.Lock()
	c.uploading = false
	if err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("upload image: %w", err)
	}
	if c.preview != p {
		// another image was selected meanwhile
		c.mu.Unlock()
		return "", common.ErrSuperseded
	}
	c.dropPreviewLocked()
	c.draft.ImageURL = url
	c.mu.Unlock()

	c.io.Lock()
	err = c.kv.Set(ctx, KeyImageURL, url)
	c.io.Unlock()
	if err != nil {
		c.log.Warn(ctx, "failed to persist draft image", "err", err)
	}
	return url, nil
}

// RemoveImage drops both the staged preview and the registered image.
func (c *Composer) RemoveImage(ctx context.Context) error {
	c.mu.Lock()
	c.dropPreviewLocked()
	c.draft.ImageURL = ""
	c.mu.Unlock()

	c.io.Lock()
	defer c.io.Unlock()
	if err := c.kv.Delete(ctx, KeyImageURL); err != nil {
		return fmt.Errorf("remove draft image: %w", err)
	}
	return nil
}

// dropPreviewLocked releases the staged image bytes.
func (c *Composer) dropPreviewLocked() {
	if c.preview != nil {
		c.preview.Image.Wipe()
		c.preview = nil
	}
}

// Publish creates the post with the registered image, if any. On success the
// draft is cleared everywhere and the user is sent to the post list; on
// failure it is left intact.
func (c *Composer) Publish(ctx context.Context, title, body string) (models.Post, error) {
	if err := models.ValidatePost(title, body); err != nil {
		return models.Post{}, err
	}

	c.mu.Lock()
	if c.publishing {
		c.mu.Unlock()
		return models.Post{}, common.ErrPending
	}
	c.publishing = true
	imageURL := c.draft.ImageURL
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.publishing = false
		c.mu.Unlock()
	}()

	post, err := c.api.CreatePost(ctx, models.NewPost{Title: title, Body: body, ImageURL: imageURL})
	if err != nil {
		return models.Post{}, fmt.Errorf("publish: %w", err)
	}

	if err := c.clear(ctx); err != nil {
		c.log.Warn(ctx, "published draft not cleared", "err", err)
	}
	c.log.Info(ctx, "post published", "post_id", post.ID)
	c.nav.Navigate(ctx, ui.RoutePosts)
	return post, nil
}

// Discard throws the draft away.
func (c *Composer) Discard(ctx context.Context) error {
	return c.clear(ctx)
}

func (c *Composer) clear(ctx context.Context) error {
	c.deb.Cancel()

	c.io.Lock()
	defer c.io.Unlock()

	c.mu.Lock()
	c.gen++
	c.draft = models.Draft{}
	c.dropPreviewLocked()
	c.status = StatusIdle
	c.mu.Unlock()

	if err := c.kv.Delete(ctx, Keys...); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// Close writes a pending autosave immediately.
func (c *Composer) Close() {
	c.deb.Flush()
}

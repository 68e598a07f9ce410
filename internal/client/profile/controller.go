// Package profile edits the signed-in user's nickname and avatar and
// deletes the account.
package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/filex"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/dmitrijs2005/gophboard/internal/syncx"
)

type API interface {
	UpdateNickname(ctx context.Context, nickname string) (models.Identity, error)
	UploadAvatar(ctx context.Context, img models.Image) (models.Identity, error)
	DeleteAvatar(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

type Sessions interface {
	Current() (models.Session, bool)
	Patch(ctx context.Context, p models.SessionPatch) error
	Clear(ctx context.Context) error
}

// Likes is cleared when the account goes away.
type Likes interface {
	Clear()
}

// Drafts is discarded when the account goes away.
type Drafts interface {
	Discard(ctx context.Context) error
}

// DeleteAccountPrompt is shown before an account is deleted.
const DeleteAccountPrompt = "Permanently delete your account together with all your posts, comments and likes? This cannot be undone."

type Controller struct {
	api      API
	sessions Sessions
	likes    Likes
	drafts   Drafts
	nav      ui.Navigator
	log      logging.Logger
	actions  syncx.KeyedMutex[string]

	mu     sync.Mutex
	staged *models.Image
}

func NewController(api API, sessions Sessions, likes Likes, drafts Drafts, nav ui.Navigator, log logging.Logger) *Controller {
	return &Controller{api: api, sessions: sessions, likes: likes, drafts: drafts, nav: nav, log: log}
}

func (c *Controller) guard(action string) (func(), error) {
	unlock, ok := c.actions.TryLock(action)
	if !ok {
		return nil, common.ErrPending
	}
	return unlock, nil
}

func (c *Controller) session() (models.Session, error) {
	s, ok := c.sessions.Current()
	if !ok {
		return models.Session{}, common.ErrUnauthenticated
	}
	return s, nil
}

// UpdateNickname renames the user. The current nickname is rejected with
// common.ErrNoChange without any request.
func (c *Controller) UpdateNickname(ctx context.Context, nickname string) error {
	sess, err := c.session()
	if err != nil {
		return err
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return common.Invalid("nickname", "nickname cannot be empty")
	}
	if nickname == sess.DisplayName {
		return fmt.Errorf("nickname %q: %w", nickname, common.ErrNoChange)
	}

	unlock, err := c.guard("nickname")
	if err != nil {
		return err
	}
	defer unlock()

	ident, err := c.api.UpdateNickname(ctx, nickname)
	if err != nil {
		return fmt.Errorf("update nickname: %w", err)
	}
	if ident.DisplayName != "" {
		nickname = ident.DisplayName
	}
	return c.sessions.Patch(ctx, models.SessionPatch{DisplayName: &nickname})
}

// StageAvatar keeps img for a later UploadAvatar. Only PNG and JPEG are accepted.
func (c *Controller) StageAvatar(img models.Image) error {
	ct, err := filex.SniffImage(img.Data, filex.AvatarTypes...)
	if err != nil {
		return common.Invalid("avatar", "only PNG and JPEG images are allowed")
	}
	img.ContentType = ct

	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged.Wipe()
	c.staged = &img
	return nil
}

// Staged returns the staged avatar, if any.
func (c *Controller) Staged() (models.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged == nil {
		return models.Image{}, false
	}
	return *c.staged, true
}

// UploadAvatar uploads the staged avatar and stores the new URL in the session.
func (c *Controller) UploadAvatar(ctx context.Context) (string, error) {
	if _, err := c.session(); err != nil {
		return "", err
	}
	c.mu.Lock()
	img := c.staged
	c.mu.Unlock()
	if img == nil {
		return "", common.Invalid("avatar", "choose a file first")
	}

	unlock, err := c.guard("avatar")
	if err != nil {
		return "", err
	}
	defer unlock()

	ident, err := c.api.UploadAvatar(ctx, *img)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	c.mu.Lock()
	if c.staged == img {
		c.staged.Wipe()
		c.staged = nil
	}
	c.mu.Unlock()

	url := ident.AvatarURL
	if err := c.sessions.Patch(ctx, models.SessionPatch{AvatarURL: &url}); err != nil {
		return "", err
	}
	return url, nil
}

// RemoveAvatar deletes the avatar after confirmation.
func (c *Controller) RemoveAvatar(ctx context.Context, confirm ui.Confirmer) error {
	if _, err := c.session(); err != nil {
		return err
	}
	if err := ui.Ask(ctx, confirm, "Remove your avatar?"); err != nil {
		return err
	}

	unlock, err := c.guard("avatar")
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.api.DeleteAvatar(ctx); err != nil {
		return fmt.Errorf("remove avatar: %w", err)
	}
	empty := ""
	return c.sessions.Patch(ctx, models.SessionPatch{AvatarURL: &empty})
}

// DeleteAccount deletes the account after confirmation, then signs out and
// drops the like cache and the draft.
func (c *Controller) DeleteAccount(ctx context.Context, confirm ui.Confirmer) error {
	sess, err := c.session()
	if err != nil {
		return err
	}
	if err := ui.Ask(ctx, confirm, DeleteAccountPrompt); err != nil {
		return err
	}

	unlock, err := c.guard("delete")
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.api.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := c.sessions.Clear(ctx); err != nil {
		c.log.Warn(ctx, "session not cleared after account deletion", "err", err)
	}
	c.likes.Clear()
	if err := c.drafts.Discard(ctx); err != nil {
		c.log.Warn(ctx, "draft not cleared after account deletion", "err", err)
	}

	c.mu.Lock()
	c.staged.Wipe()
	c.staged = nil
	c.mu.Unlock()

	c.log.Info(ctx, "account deleted", "user_id", sess.IdentityID)
	c.nav.Navigate(ctx, ui.RouteLogin)
	return nil
}

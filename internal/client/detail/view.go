// Package detail implements the single-post page: the post, its comment
// thread and like state, with the Viewing -> Editing -> Viewing and
// Viewing -> Deleted transitions.
package detail

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/comments"
	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"golang.org/x/sync/errgroup"
)

type API interface {
	GetPost(ctx context.Context, id int64) (models.Post, error)
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	UpdatePost(ctx context.Context, id int64, title, body string) (models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	comments.API
}

type Likes interface {
	Load(ctx context.Context) (models.LikeSet, error)
	Track(posts ...models.Post)
	Apply(p models.Post) models.Post
	IsLiked(postID int64) bool
	Toggle(ctx context.Context, postID int64) (likes.Outcome, error)
}

type Sessions interface {
	Current() (models.Session, bool)
}

type State int

const (
	StateEmpty State = iota
	StateViewing
	StateEditing
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateDeleted:
		return "deleted"
	default:
		return "empty"
	}
}

var errWrongState = common.Invalid("state", "action not allowed in the current state")

type View struct {
	api      API
	likes    Likes
	sessions Sessions
	nav      ui.Navigator
	log      logging.Logger
	thread   *comments.Thread

	mu    sync.Mutex
	seq   uint64
	state State
	post  models.Post
}

func NewView(api API, likes Likes, sessions Sessions, nav ui.Navigator, log logging.Logger) *View {
	return &View{
		api:      api,
		likes:    likes,
		sessions: sessions,
		nav:      nav,
		log:      log,
		thread:   comments.NewThread(api, sessions, log),
	}
}

// Load fetches the post, its comments and, when signed in, the like set
// concurrently. Any failure fails the whole load and navigates back to the
// post list.
func (v *View) Load(ctx context.Context, postID int64) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	var (
		post  models.Post
		items []models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = v.api.GetPost(gctx, postID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = v.api.ListComments(gctx, postID)
		return err
	})
	if _, ok := v.sessions.Current(); ok {
		g.Go(func() error {
			_, err := v.likes.Load(gctx)
			return err
		})
	}
	err := g.Wait()

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		return common.ErrSuperseded
	}
	if err != nil {
		v.mu.Unlock()
		v.log.Warn(ctx, "post load failed", "post_id", postID, "err", err)
		v.nav.Navigate(ctx, ui.RoutePosts)
		return fmt.Errorf("load post %d: %w", postID, err)
	}
	v.likes.Track(post)
	v.post = post
	v.state = StateViewing
	v.mu.Unlock()

	v.thread.Reset(postID, items)
	return nil
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Post returns the displayed post with the cached like count.
func (v *View) Post() models.Post {
	v.mu.Lock()
	p := v.post
	v.mu.Unlock()
	return v.likes.Apply(p)
}

func (v *View) Liked() bool {
	v.mu.Lock()
	id := v.post.ID
	v.mu.Unlock()
	return v.likes.IsLiked(id)
}

// IsAuthor reports whether the signed-in user wrote the post.
func (v *View) IsAuthor() bool {
	sess, ok := v.sessions.Current()
	if !ok {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.post.AuthorID == sess.IdentityID
}

func (v *View) Comments() *comments.Thread {
	return v.thread
}

// BeginEdit enters edit mode and returns the values to edit.
func (v *View) BeginEdit() (title, body string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateViewing {
		return "", "", fmt.Errorf("edit post in state %s: %w", v.state, errWrongState)
	}
	v.state = StateEditing
	return v.post.Title, v.post.Body, nil
}

func (v *View) CancelEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateEditing {
		v.state = StateViewing
	}
}

// Save sends the edited post. The server decides whether the caller may edit
// it; a rejection is returned as is and the view stays in edit mode with the
// previous content displayed.
func (v *View) Save(ctx context.Context, title, body string) (models.Post, error) {
	v.mu.Lock()
	state, cur := v.state, v.post
	v.mu.Unlock()
	if state != StateEditing {
		return models.Post{}, fmt.Errorf("save post in state %s: %w", state, errWrongState)
	}
	if err := models.ValidatePost(title, body); err != nil {
		return models.Post{}, err
	}

	updated, err := v.api.UpdatePost(ctx, cur.ID, title, body)
	if err != nil {
		v.log.Warn(ctx, "post save rejected", "post_id", cur.ID, "err", err)
		return models.Post{}, fmt.Errorf("save post %d: %w", cur.ID, err)
	}
	if updated.AuthorDisplayName == "" {
		updated.AuthorDisplayName = cur.AuthorDisplayName
	}

	v.mu.Lock()
	v.post = updated
	v.state = StateViewing
	v.mu.Unlock()
	v.likes.Track(updated)
	return v.likes.Apply(updated), nil
}

// Delete removes the post after confirmation and navigates to the post list.
// On failure the post stays as it was.
func (v *View) Delete(ctx context.Context, confirm ui.Confirmer) error {
	v.mu.Lock()
	state, id := v.state, v.post.ID
	v.mu.Unlock()
	if state != StateViewing {
		return fmt.Errorf("delete post in state %s: %w", state, errWrongState)
	}
	if err := ui.Ask(ctx, confirm, "Delete this post? This cannot be undone."); err != nil {
		return err
	}

	if err := v.api.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}

	v.mu.Lock()
	v.state = StateDeleted
	v.mu.Unlock()
	v.log.Info(ctx, "post deleted", "post_id", id)
	v.nav.Navigate(ctx, ui.RoutePosts)
	return nil
}

// ToggleLike toggles the like of the displayed post through the shared cache.
func (v *View) ToggleLike(ctx context.Context) (likes.Outcome, error) {
	v.mu.Lock()
	state, id := v.state, v.post.ID
	v.mu.Unlock()
	if state != StateViewing && state != StateEditing {
		return likes.Outcome{}, fmt.Errorf("like post in state %s: %w", state, errWrongState)
	}
	return v.likes.Toggle(ctx, id)
}

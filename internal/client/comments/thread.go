// Package comments manages the comment thread of one post. Creation is not
// optimistic: a comment enters the thread only once the server returns it.
package comments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/dmitrijs2005/gophboard/internal/syncx"
)

type API interface {
	CreateComment(ctx context.Context, postID int64, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, commentID int64, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
}

type Sessions interface {
	Current() (models.Session, bool)
}

// Thread is the ordered, newest-first comment list of a post.
type Thread struct {
	api      API
	sessions Sessions
	log      logging.Logger
	actions  syncx.KeyedMutex[string]

	mu      sync.Mutex
	postID  int64
	items   []models.Comment
	editing int64
}

func NewThread(api API, sessions Sessions, log logging.Logger) *Thread {
	return &Thread{api: api, sessions: sessions, log: log}
}

// ValidateContent trims s and checks it is non-empty and at most
// common.MaxCommentLength characters long.
func ValidateContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", common.Invalid("content", "comment cannot be empty")
	}
	if n := utf8.RuneCountInString(s); n > common.MaxCommentLength {
		return "", common.Invalid("content", fmt.Sprintf("comment is %d characters long, the limit is %d", n, common.MaxCommentLength))
	}
	return s, nil
}

// Reset binds the thread to postID with the given comments, as served.
func (t *Thread) Reset(postID int64, items []models.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.postID = postID
	t.items = append([]models.Comment(nil), items...)
	t.editing = 0
}

// Items returns a copy of the thread.
func (t *Thread) Items() []models.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Comment(nil), t.items...)
}

func (t *Thread) PostID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.postID
}

// guard rejects an action that is already in flight.
func (t *Thread) guard(key string) (func(), error) {
	unlock, ok := t.actions.TryLock(key)
	if !ok {
		return nil, common.ErrPending
	}
	return unlock, nil
}

// Create posts a comment and puts the server's copy at the head of the thread.
func (t *Thread) Create(ctx context.Context, content string) (models.Comment, error) {
	if _, ok := t.sessions.Current(); !ok {
		return models.Comment{}, common.ErrUnauthenticated
	}
	content, err := ValidateContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	unlock, err := t.guard("create")
	if err != nil {
		return models.Comment{}, err
	}
	defer unlock()

	postID := t.PostID()
	c, err := t.api.CreateComment(ctx, postID, content)
	if err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	t.mu.Lock()
	if t.postID == postID {
		t.items = append([]models.Comment{c}, t.items...)
	}
	t.mu.Unlock()

	t.log.Debug(ctx, "comment created", "post_id", postID, "comment_id", c.ID)
	return c, nil
}

// own returns the comment if the signed-in user wrote it.
func (t *Thread) own(commentID int64) (models.Comment, error) {
	sess, ok := t.sessions.Current()
	if !ok {
		return models.Comment{}, common.ErrUnauthenticated
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.items {
		if c.ID == commentID {
			if c.AuthorID != sess.IdentityID {
				return models.Comment{}, fmt.Errorf("comment %d: %w", commentID, common.ErrAuthorization)
			}
			return c, nil
		}
	}
	return models.Comment{}, fmt.Errorf("comment %d: %w", commentID, common.ErrNotFound)
}

// BeginEdit puts one comment in edit mode, leaving any other, and returns
// its current content.
func (t *Thread) BeginEdit(commentID int64) (string, error) {
	c, err := t.own(commentID)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.editing = commentID
	t.mu.Unlock()
	return c.Content, nil
}

func (t *Thread) CancelEdit() {
	t.mu.Lock()
	t.editing = 0
	t.mu.Unlock()
}

// Editing returns the id of the comment in edit mode, or 0.
func (t *Thread) Editing() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editing
}

// Update replaces the content of an own comment in place. Unchanged content
// issues no request. On failure the comment stays in edit mode.
func (t *Thread) Update(ctx context.Context, commentID int64, content string) (models.Comment, error) {
	cur, err := t.own(commentID)
	if err != nil {
		return models.Comment{}, err
	}
	content, err = ValidateContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	if content == cur.Content {
		t.finishEdit(commentID)
		return cur, nil
	}

	unlock, err := t.guard(fmt.Sprintf("update:%d", commentID))
	if err != nil {
		return models.Comment{}, err
	}
	defer unlock()

	updated, err := t.api.UpdateComment(ctx, commentID, content)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	t.mu.Lock()
	for i := range t.items {
		if t.items[i].ID == commentID {
			// the server copy may omit the embedded author
			if updated.AuthorDisplayName == "" {
				updated.AuthorDisplayName = t.items[i].AuthorDisplayName
				updated.AuthorAvatarURL = t.items[i].AuthorAvatarURL
			}
			t.items[i] = updated
			break
		}
	}
	if t.editing == commentID {
		t.editing = 0
	}
	t.mu.Unlock()
	return updated, nil
}

func (t *Thread) finishEdit(commentID int64) {
	t.mu.Lock()
	if t.editing == commentID {
		t.editing = 0
	}
	t.mu.Unlock()
}

// Delete removes an own comment after confirmation. On failure the comment
// stays in the thread.
func (t *Thread) Delete(ctx context.Context, commentID int64, confirm ui.Confirmer) error {
	if _, err := t.own(commentID); err != nil {
		return err
	}
	if err := ui.Ask(ctx, confirm, "Delete this comment?"); err != nil {
		return err
	}

	unlock, err := t.guard(fmt.Sprintf("delete:%d", commentID))
	if err != nil {
		return err
	}
	defer unlock()

	if err := t.api.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	t.mu.Lock()
	for i := range t.items {
		if t.items[i].ID == commentID {
			t.items = append(t.items[:i], t.items[i+1:]...)
			break
		}
	}
	if t.editing == commentID {
		t.editing = 0
	}
	t.mu.Unlock()
	return nil
}

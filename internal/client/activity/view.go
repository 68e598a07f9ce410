// Package activity shows the signed-in user's own posts, comments and liked posts.
package activity

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/posts"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type API interface {
	MyPosts(ctx context.Context) ([]models.Post, error)
	MyComments(ctx context.Context) ([]models.MyComment, error)
	MyLikedPosts(ctx context.Context) ([]models.Post, error)
}

type Likes interface {
	Track(posts ...models.Post)
	Apply(p models.Post) models.Post
	IsLiked(postID int64) bool
	Toggle(ctx context.Context, postID int64) (likes.Outcome, error)
}

type Sessions interface {
	Current() (models.Session, bool)
}

// View holds the three activity lists. Load replaces all of them at once.
type View struct {
	api      API
	likes    Likes
	sessions Sessions
	log      logging.Logger

	mu       sync.Mutex
	seq      uint64
	posts    []models.Post
	liked    []models.Post
	comments []models.MyComment
	loaded   bool
}

func NewView(api API, likes Likes, sessions Sessions, log logging.Logger) *View {
	return &View{api: api, likes: likes, sessions: sessions, log: log}
}

// Load fetches all three lists concurrently. Any failure leaves the previous
// lists in place.
func (v *View) Load(ctx context.Context) error {
	if _, ok := v.sessions.Current(); !ok {
		return common.ErrUnauthenticated
	}

	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	var (
		mine     []models.Post
		liked    []models.Post
		comments []models.MyComment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mine, err = v.api.MyPosts(gctx)
		return err
	})
	g.Go(func() (err error) {
		liked, err = v.api.MyLikedPosts(gctx)
		return err
	})
	g.Go(func() (err error) {
		comments, err = v.api.MyComments(gctx)
		return err
	})
	err := g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		v.log.Debug(ctx, "activity load superseded")
		return common.ErrSuperseded
	}
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}

	v.likes.Track(mine...)
	v.likes.Track(liked...)
	v.posts, v.liked, v.comments = mine, liked, comments
	v.loaded = true
	return nil
}

func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Posts returns the user's own posts with the current like state.
func (v *View) Posts() []posts.Item {
	v.mu.Lock()
	list := v.posts
	v.mu.Unlock()
	return v.items(list)
}

// LikedPosts returns the posts the user liked when the list was loaded.
// A post unliked since then is still listed, with Liked false.
func (v *View) LikedPosts() []posts.Item {
	v.mu.Lock()
	list := v.liked
	v.mu.Unlock()
	return v.items(list)
}

func (v *View) Comments() []models.MyComment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.MyComment(nil), v.comments...)
}

func (v *View) items(list []models.Post) []posts.Item {
	return lo.Map(list, func(p models.Post, _ int) posts.Item {
		return posts.Item{Post: v.likes.Apply(p), Liked: v.likes.IsLiked(p.ID)}
	})
}

// ToggleLike flips the like on one of the listed posts through the shared cache.
func (v *View) ToggleLike(ctx context.Context, postID int64) (likes.Outcome, error) {
	return v.likes.Toggle(ctx, postID)
}

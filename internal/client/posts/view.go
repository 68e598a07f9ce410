// Package posts implements the paginated, searchable post list.
package posts

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/samber/lo"
)

type API interface {
	ListPosts(ctx context.Context, page int, search string) (models.PostPage, error)
}

// Likes is the shared like cache as seen by a view.
type Likes interface {
	Track(posts ...models.Post)
	Apply(p models.Post) models.Post
	IsLiked(postID int64) bool
	Toggle(ctx context.Context, postID int64) (likes.Outcome, error)
}

// Item is a post as rendered in the list.
type Item struct {
	models.Post
	Liked bool
}

// Snapshot is what the list currently shows.
type Snapshot struct {
	Items      []Item
	PageNumber int
	TotalPages int
	TotalCount int
	Search     string
	Loading    bool
}

func (s Snapshot) IsEmpty() bool { return len(s.Items) == 0 }

func (s Snapshot) HasPrev() bool { return s.PageNumber > 1 }

func (s Snapshot) HasNext() bool { return s.PageNumber < s.TotalPages }

// CollectionView is one post list. Every Fetch supersedes the previous one:
// only the result of the most recently issued request is applied.
type CollectionView struct {
	api   API
	likes Likes
	log   logging.Logger

	mu      sync.Mutex
	seq     uint64
	page    models.PostPage
	search  string
	loading bool
}

func NewCollectionView(api API, likes Likes, log logging.Logger) *CollectionView {
	return &CollectionView{api: api, likes: likes, log: log, page: models.PostPage{PageNumber: 1}}
}

// Fetch loads page (1-based) of the posts matching search. If a newer Fetch
// was issued while this one was in flight, the result is dropped and
// common.ErrSuperseded is returned.
func (v *CollectionView) Fetch(ctx context.Context, page int, search string) (models.PostPage, error) {
	if page < 1 {
		page = 1
	}

	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.loading = true
	v.mu.Unlock()

	res, err := v.api.ListPosts(ctx, page, search)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		v.log.Debug(ctx, "stale post page dropped", "page", page, "search", search)
		return models.PostPage{}, common.ErrSuperseded
	}
	v.loading = false

	if err != nil {
		return models.PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	v.likes.Track(res.Items...)
	v.page = res
	v.search = search
	return v.overlay(res), nil
}

func (v *CollectionView) overlay(p models.PostPage) models.PostPage {
	p.Items = lo.Map(p.Items, func(post models.Post, _ int) models.Post { return v.likes.Apply(post) })
	return p
}

// Search restarts the list at page 1 for term.
func (v *CollectionView) Search(ctx context.Context, term string) (models.PostPage, error) {
	return v.Fetch(ctx, 1, term)
}

// GoTo moves to page n of the current search, clamped to the known range.
func (v *CollectionView) GoTo(ctx context.Context, n int) (models.PostPage, error) {
	v.mu.Lock()
	total, search := v.page.TotalPages, v.search
	v.mu.Unlock()

	n = max(1, min(n, max(total, 1)))
	return v.Fetch(ctx, n, search)
}

func (v *CollectionView) Next(ctx context.Context) (models.PostPage, error) {
	return v.GoTo(ctx, v.current()+1)
}

func (v *CollectionView) Prev(ctx context.Context) (models.PostPage, error) {
	return v.GoTo(ctx, v.current()-1)
}

// Refresh refetches the current page.
func (v *CollectionView) Refresh(ctx context.Context) (models.PostPage, error) {
	v.mu.Lock()
	n, search := v.page.PageNumber, v.search
	v.mu.Unlock()
	return v.Fetch(ctx, n, search)
}

func (v *CollectionView) current() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return max(v.page.PageNumber, 1)
}

// Snapshot renders the last applied page with the like cache's state.
func (v *CollectionView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := lo.Map(v.page.Items, func(p models.Post, _ int) Item {
		return Item{Post: v.likes.Apply(p), Liked: v.likes.IsLiked(p.ID)}
	})
	return Snapshot{
		Items:      items,
		PageNumber: max(v.page.PageNumber, 1),
		TotalPages: v.page.TotalPages,
		TotalCount: v.page.TotalCount,
		Search:     v.search,
		Loading:    v.loading,
	}
}

// ToggleLike toggles a like of a listed post through the shared cache.
func (v *CollectionView) ToggleLike(ctx context.Context, postID int64) (likes.Outcome, error) {
	return v.likes.Toggle(ctx, postID)
}

// Package likes holds the per-session set of liked posts shared by every
// view, and toggles likes optimistically.
package likes

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/optimistic"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/dmitrijs2005/gophboard/internal/syncx"
)

// API is the part of the remote client the cache needs.
type API interface {
	Like(ctx context.Context, postID int64) error
	Unlike(ctx context.Context, postID int64) error
	MyLikes(ctx context.Context) ([]int64, error)
}

// Sessions tells whether someone is signed in.
type Sessions interface {
	Current() (models.Session, bool)
}

// Outcome is the state of a post after a toggle settled.
type Outcome struct {
	PostID    int64
	Liked     bool
	LikeCount int
	// Reverted is set when the remote call failed and the change was undone.
	Reverted bool
}

// Listener is called with the id of a post whose like state changed, or 0
// when the whole set was replaced.
type Listener func(postID int64)

// Cache is the single LikeSet of the current session together with the
// like counts of every post a view has shown.
type Cache struct {
	api      API
	sessions Sessions
	log      logging.Logger
	locks    syncx.KeyedMutex[int64]

	mu       sync.RWMutex
	set      models.LikeSet
	counts   map[int64]int
	inflight map[int64]int

	subsMu  sync.Mutex
	subs    map[uint64]Listener
	nextSub uint64
}

func NewCache(api API, sessions Sessions, log logging.Logger) *Cache {
	return &Cache{
		api:      api,
		sessions: sessions,
		log:      log,
		set:      models.NewLikeSet(),
		counts:   make(map[int64]int),
		inflight: make(map[int64]int),
		subs:     make(map[uint64]Listener),
	}
}

// Load replaces the set with the server's. Without a session the set is
// simply emptied.
func (c *Cache) Load(ctx context.Context) (models.LikeSet, error) {
	if _, ok := c.sessions.Current(); !ok {
		c.Clear()
		return models.NewLikeSet(), nil
	}

	ids, err := c.api.MyLikes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}

	fresh := models.NewLikeSet(ids...)
	c.mu.Lock()
	// keep the optimistic membership of posts with a toggle in flight
	for id := range c.inflight {
		if c.set.Has(id) {
			fresh[id] = struct{}{}
		} else {
			delete(fresh, id)
		}
	}
	c.set = fresh
	out := fresh.Clone()
	c.mu.Unlock()

	c.notify(0)
	return out, nil
}

// Track records the server like counts of freshly fetched posts. Posts with
// a toggle in flight keep their optimistic count.
func (c *Cache) Track(posts ...models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range posts {
		if c.inflight[p.ID] > 0 {
			continue
		}
		c.counts[p.ID] = p.LikeCount
	}
}

// Apply overlays the cached like count on p.
func (c *Cache) Apply(p models.Post) models.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n, ok := c.counts[p.ID]; ok {
		p.LikeCount = n
	}
	return p
}

func (c *Cache) IsLiked(postID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set.Has(postID)
}

// Count returns the cached like count of a tracked post.
func (c *Cache) Count(postID int64) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.counts[postID]
	return n, ok
}

// Set returns a copy of the liked ids.
func (c *Cache) Set() models.LikeSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set.Clone()
}

// Clear empties the set and forgets tracked counts.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.set = models.NewLikeSet()
	c.counts = make(map[int64]int)
	c.mu.Unlock()
	c.notify(0)
}

type state struct {
	liked    bool
	count    int
	hasCount bool
}

// Toggle flips the like of postID. The local change is visible to every
// view before the remote call is issued, and is undone if it fails.
// Toggles of the same post run one after another.
func (c *Cache) Toggle(ctx context.Context, postID int64) (Outcome, error) {
	if _, ok := c.sessions.Current(); !ok {
		return c.outcome(postID, false), common.ErrUnauthenticated
	}

	unlock, err := c.locks.Lock(ctx, postID)
	if err != nil {
		return c.outcome(postID, false), err
	}
	defer unlock()

	op := optimistic.Begin(optimistic.Change[state]{
		Snapshot: func() state { return c.snapshot(postID) },
		Apply:    func() { c.flip(postID) },
		Restore:  func(s state) { c.restore(postID, s) },
	})
	c.notify(postID)

	wasLiked := op.Snapshot().liked
	if wasLiked {
		err = c.api.Unlike(ctx, postID)
	} else {
		err = c.api.Like(ctx, postID)
	}

	if err != nil {
		op.Revert()
		c.settle(postID)
		c.notify(postID)
		c.log.Warn(ctx, "like toggle rolled back", "post_id", postID, "err", err)
		return c.outcome(postID, true), fmt.Errorf("toggle like of post %d: %w", postID, err)
	}

	op.Commit()
	c.settle(postID)
	c.log.Debug(ctx, "like toggled", "post_id", postID, "liked", !wasLiked)
	return c.outcome(postID, false), nil
}

func (c *Cache) settle(postID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[postID]--
	if c.inflight[postID] <= 0 {
		delete(c.inflight, postID)
	}
}

func (c *Cache) snapshot(postID int64) state {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.counts[postID]
	return state{liked: c.set.Has(postID), count: n, hasCount: ok}
}

func (c *Cache) flip(postID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[postID]++

	delta := 1
	if c.set.Has(postID) {
		delete(c.set, postID)
		delta = -1
	} else {
		c.set[postID] = struct{}{}
	}
	if n, ok := c.counts[postID]; ok {
		c.counts[postID] = max(n+delta, 0)
	}
}

func (c *Cache) restore(postID int64, s state) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.liked {
		c.set[postID] = struct{}{}
	} else {
		delete(c.set, postID)
	}
	if s.hasCount {
		c.counts[postID] = s.count
	} else {
		delete(c.counts, postID)
	}
}

func (c *Cache) outcome(postID int64, reverted bool) Outcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Outcome{
		PostID:    postID,
		Liked:     c.set.Has(postID),
		LikeCount: c.counts[postID],
		Reverted:  reverted,
	}
}

// Subscribe registers fn for every later change.
func (c *Cache) Subscribe(fn Listener) (cancel func()) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

func (c *Cache) notify(postID int64) {
	c.subsMu.Lock()
	listeners := make([]Listener, 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range listeners {
		fn(postID)
	}
}

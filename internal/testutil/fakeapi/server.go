// Package fakeapi is an in-memory implementation of the community REST API
// used by integration tests. It serves the same routes and payload shapes as
// the real backend, and lets tests inject failures, hold requests in flight
// and inspect the calls that reached the server.
package fakeapi

import (
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// DefaultPageSize is the number of posts per page served by /posts.
const DefaultPageSize = 10

type user struct {
	ID        int64
	Email     string
	Password  string
	Nickname  string
	AvatarURL string
	Token     string
}

type post struct {
	ID        int64
	Title     string
	Content   string
	UserID    int64
	CreatedAt time.Time
	ImageURL  string
	Likes     map[int64]struct{}
}

type comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

type failure struct {
	method string
	path   string
	status int
}

type hold struct {
	match   func(c *fiber.Ctx) bool
	release chan struct{}
	used    bool
}

// Server is a running fake API.
type Server struct {
	PageSize int

	mu       sync.Mutex
	srv      *httptest.Server
	faker    *gofakeit.Faker
	seq      int64
	clock    time.Time
	users    map[int64]*user
	posts    map[int64]*post
	comments map[int64]*comment
	failures []failure
	holds    []*hold
	calls    []string
}

// New starts a fake API server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		PageSize: DefaultPageSize,
		faker:    gofakeit.New(42),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    make(map[int64]*user),
		posts:    make(map[int64]*post),
		comments: make(map[int64]*comment),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(s.record, s.inject)
	s.routes(app)

	s.srv = httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API root, suitable for client.NewRESTClient.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

// Calls returns "METHOD /api/path" for every request received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount counts received requests with the given method and path.
func (s *Server) CallCount(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

// FailNext makes the next request matching method and path (e.g.
// "/api/posts/3/like") fail with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status})
}

// Hold blocks the first request matching match until release is called.
func (s *Server) Hold(match func(c *fiber.Ctx) bool) (release func()) {
	h := &hold{match: match, release: make(chan struct{})}
	s.mu.Lock()
	s.holds = append(s.holds, h)
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(h.release) }) }
}

// SeedUser registers a user and returns its id and bearer token.
func (s *Server) SeedUser(email, password, nickname string) (int64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUser(email, password, nickname)
	return u.ID, u.Token
}

// SeedPost creates a post authored by authorID and returns its id.
func (s *Server) SeedPost(authorID int64, title, content string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPost(authorID, title, content, "").ID
}

// SeedPosts creates n posts with generated titles and bodies.
func (s *Server) SeedPosts(authorID int64, n int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		p := s.addPost(authorID, s.faker.Sentence(4), s.faker.Paragraph(1, 3, 12, " "), "")
		ids = append(ids, p.ID)
	}
	return ids
}

// SeedComment adds a comment and returns its id.
func (s *Server) SeedComment(authorID, postID int64, content string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addComment(authorID, postID, content).ID
}

// SeedLike records a like of postID by userID.
func (s *Server) SeedLike(userID, postID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		p.Likes[userID] = struct{}{}
	}
}

// LikeCount reports the server-side like count of a post.
func (s *Server) LikeCount(postID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		return len(p.Likes)
	}
	return 0
}

// HasPost reports whether the post exists.
func (s *Server) HasPost(postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.posts[postID]
	return ok
}

// HasUser reports whether the user exists.
func (s *Server) HasUser(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok
}

// Nickname returns the stored nickname of userID.
func (s *Server) Nickname(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return u.Nickname
	}
	return ""
}

func (s *Server) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Server) now() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *Server) addUser(email, password, nickname string) *user {
	id := s.nextID()
	u := &user{
		ID:       id,
		Email:    email,
		Password: password,
		Nickname: nickname,
		Token:    fmt.Sprintf("token-%d-%s", id, s.faker.LetterN(8)),
	}
	s.users[id] = u
	return u
}

func (s *Server) addPost(authorID int64, title, content, imageURL string) *post {
	p := &post{
		ID:        s.nextID(),
		Title:     title,
		Content:   content,
		UserID:    authorID,
		CreatedAt: s.now(),
		ImageURL:  imageURL,
		Likes:     make(map[int64]struct{}),
	}
	s.posts[p.ID] = p
	return p
}

func (s *Server) addComment(authorID, postID int64, content string) *comment {
	c := &comment{
		ID:        s.nextID(),
		PostID:    postID,
		UserID:    authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.comments[c.ID] = c
	return c
}

// sortedPosts returns posts matching filter, newest first.
func (s *Server) sortedPosts(filter func(p *post) bool) []*post {
	out := make([]*post, 0, len(s.posts))
	for _, p := range s.posts {
		if filter == nil || filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) sortedComments(filter func(c *comment) bool) []*comment {
	out := make([]*comment, 0, len(s.comments))
	for _, c := range s.comments {
		if filter(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) record(c *fiber.Ctx) error {
	s.mu.Lock()
	s.calls = append(s.calls, c.Method()+" "+c.Path())
	var matched *hold
	for _, h := range s.holds {
		if !h.used && h.match(c) {
			h.used = true
			matched = h
			break
		}
	}
	s.mu.Unlock()

	if matched != nil {
		<-matched.release
	}
	return c.Next()
}

func (s *Server) inject(c *fiber.Ctx) error {
	s.mu.Lock()
	for i, f := range s.failures {
		if f.method == c.Method() && f.path == c.Path() {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			s.mu.Unlock()
			return c.Status(f.status).JSON(fiber.Map{"message": "injected failure"})
		}
	}
	s.mu.Unlock()
	return c.Next()
}

func (s *Server) userByToken(c *fiber.Ctx) *user {
	auth := c.Get(fiber.HeaderAuthorization)
	tok, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || tok == "" {
		return nil
	}
	for _, u := range s.users {
		if u.Token == tok {
			return u
		}
	}
	return nil
}

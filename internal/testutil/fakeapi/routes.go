package fakeapi

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) routes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/register", s.register)
	api.Post("/login", s.login)

	api.Get("/posts", s.listPosts)
	api.Post("/posts/image-upload", s.uploadImage)
	api.Post("/posts", s.createPost)
	api.Get("/posts/:id", s.getPost)
	api.Put("/posts/:id", s.updatePost)
	api.Delete("/posts/:id", s.deletePost)

	api.Get("/posts/:id/comments", s.listComments)
	api.Post("/posts/:id/comments", s.createComment)
	api.Put("/comments/:id", s.updateComment)
	api.Delete("/comments/:id", s.deleteComment)

	api.Post("/posts/:id/like", s.like)
	api.Delete("/posts/:id/like", s.unlike)

	api.Get("/user/my-likes", s.myLikes)
	api.Get("/user/my-posts", s.myPosts)
	api.Get("/user/my-comments", s.myComments)
	api.Get("/user/my-likes-posts", s.myLikedPosts)
	api.Put("/user/nickname", s.updateNickname)
	api.Post("/user/avatar", s.uploadAvatar)
	api.Delete("/user/avatar", s.deleteAvatar)
	api.Delete("/user", s.deleteAccount)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func (s *Server) postJSON(p *post) fiber.Map {
	author := s.users[p.UserID]
	nick, avatar := "", ""
	if author != nil {
		nick, avatar = author.Nickname, author.AvatarURL
	}
	return fiber.Map{
		"id":         p.ID,
		"title":      p.Title,
		"content":    p.Content,
		"user_id":    p.UserID,
		"users":      fiber.Map{"nickname": nick, "avatar_url": avatar},
		"created_at": p.CreatedAt,
		"like_count": len(p.Likes),
		"image_url":  p.ImageURL,
	}
}

func (s *Server) commentJSON(cm *comment) fiber.Map {
	author := s.users[cm.UserID]
	nick, avatar := "", "null"
	if author != nil {
		nick = author.Nickname
		if author.AvatarURL != "" {
			avatar = author.AvatarURL
		}
	}
	m := fiber.Map{
		"id":         cm.ID,
		"post_id":    cm.PostID,
		"user_id":    cm.UserID,
		"content":    cm.Content,
		"created_at": cm.CreatedAt,
		"users":      fiber.Map{"nickname": nick, "avatar_url": avatar},
	}
	if p, ok := s.posts[cm.PostID]; ok {
		m["post_title"] = p.Title
	}
	return m
}

func identityJSON(u *user) fiber.Map {
	return fiber.Map{"id": u.ID, "nickname": u.Nickname, "avatar_url": u.AvatarURL}
}

// authed resolves the caller or writes a 401.
func (s *Server) authed(c *fiber.Ctx) (*user, error) {
	u := s.userByToken(c)
	if u == nil {
		return nil, fail(c, fiber.StatusUnauthorized, "Authorization header is missing or invalid")
	}
	return u, nil
}

func paramID(c *fiber.Ctx) int64 {
	n, err := c.ParamsInt("id")
	if err != nil {
		return 0
	}
	return int64(n)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil || in.Email == "" || in.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email {
			return fail(c, fiber.StatusBadRequest, "email already registered")
		}
	}
	nick := in.Nickname
	if nick == "" {
		nick, _, _ = strings.Cut(in.Email, "@")
	}
	u := s.addUser(in.Email, in.Password, nick)
	return c.Status(fiber.StatusCreated).JSON(identityJSON(u))
}

func (s *Server) login(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email && u.Password == in.Password {
			return c.JSON(fiber.Map{
				"token":      u.Token,
				"user_id":    u.ID,
				"nickname":   u.Nickname,
				"avatar_url": u.AvatarURL,
			})
		}
	}
	return fail(c, fiber.StatusUnauthorized, "invalid email or password")
}

func (s *Server) listPosts(c *fiber.Ctx) error {
	search := strings.ToLower(c.Query("search"))
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sortedPosts(func(p *post) bool {
		return search == "" ||
			strings.Contains(strings.ToLower(p.Title), search) ||
			strings.Contains(strings.ToLower(p.Content), search)
	})

	start := (page - 1) * s.PageSize
	items := make([]fiber.Map, 0, s.PageSize)
	for i := start; i < len(all) && i < start+s.PageSize; i++ {
		items = append(items, s.postJSON(all[i]))
	}

	return c.JSON(fiber.Map{
		"posts":       items,
		"total_count": len(all),
		"limit":       s.PageSize,
		"page":        page,
	})
}

func (s *Server) getPost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[paramID(c)]
	if !ok {
		return fail(c, fiber.StatusNotFound, "post not found")
	}
	return c.JSON(s.postJSON(p))
}

type postBody struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

func (s *Server) createPost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}

	var in postBody
	if err := c.BodyParser(&in); err != nil || in.Title == "" || in.Content == "" {
		return fail(c, fiber.StatusBadRequest, "Title and content are required")
	}
	p := s.addPost(u.ID, in.Title, in.Content, in.ImageURL)
	return c.Status(fiber.StatusCreated).JSON(s.postJSON(p))
}

// ownedPost resolves the post in the path and checks the caller wrote it.
func (s *Server) ownedPost(c *fiber.Ctx) (*post, error) {
	u, err := s.authed(c)
	if u == nil {
		return nil, err
	}
	p, ok := s.posts[paramID(c)]
	if !ok {
		return nil, fail(c, fiber.StatusNotFound, "post not found")
	}
	if p.UserID != u.ID {
		return nil, fail(c, fiber.StatusForbidden, "only the author can modify this post")
	}
	return p, nil
}

func (s *Server) updatePost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.ownedPost(c)
	if p == nil {
		return err
	}

	var in postBody
	if err := c.BodyParser(&in); err != nil || in.Title == "" || in.Content == "" {
		return fail(c, fiber.StatusBadRequest, "Title and content are required")
	}
	p.Title, p.Content = in.Title, in.Content
	return c.JSON(s.postJSON(p))
}

func (s *Server) deletePost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.ownedPost(c)
	if p == nil {
		return err
	}
	delete(s.posts, p.ID)
	for id, cm := range s.comments {
		if cm.PostID == p.ID {
			delete(s.comments, id)
		}
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

func (s *Server) uploadImage(c *fiber.Ctx) error {
	s.mu.Lock()
	u, err := s.authed(c)
	s.mu.Unlock()
	if u == nil {
		return err
	}

	fh, ferr := c.FormFile("image")
	if ferr != nil {
		return fail(c, fiber.StatusBadRequest, "image file is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(fiber.Map{"image_url": fmt.Sprintf("https://cdn.test/images/%d-%s", s.nextID(), fh.Filename)})
}

func (s *Server) listComments(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	postID := paramID(c)
	if _, ok := s.posts[postID]; !ok {
		return fail(c, fiber.StatusNotFound, "post not found")
	}
	out := make([]fiber.Map, 0)
	for _, cm := range s.sortedComments(func(cm *comment) bool { return cm.PostID == postID }) {
		out = append(out, s.commentJSON(cm))
	}
	return c.JSON(out)
}

type contentBody struct {
	Content string `json:"content"`
}

func (s *Server) createComment(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	postID := paramID(c)
	if _, ok := s.posts[postID]; !ok {
		return fail(c, fiber.StatusNotFound, "post not found")
	}
	var in contentBody
	if err := c.BodyParser(&in); err != nil || strings.TrimSpace(in.Content) == "" {
		return fail(c, fiber.StatusBadRequest, "content is required")
	}
	cm := s.addComment(u.ID, postID, in.Content)
	return c.Status(fiber.StatusCreated).JSON(s.commentJSON(cm))
}

func (s *Server) ownedComment(c *fiber.Ctx) (*comment, error) {
	u, err := s.authed(c)
	if u == nil {
		return nil, err
	}
	cm, ok := s.comments[paramID(c)]
	if !ok {
		return nil, fail(c, fiber.StatusNotFound, "comment not found")
	}
	if cm.UserID != u.ID {
		return nil, fail(c, fiber.StatusForbidden, "only the author can modify this comment")
	}
	return cm, nil
}

func (s *Server) updateComment(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, err := s.ownedComment(c)
	if cm == nil {
		return err
	}
	var in contentBody
	if err := c.BodyParser(&in); err != nil || strings.TrimSpace(in.Content) == "" {
		return fail(c, fiber.StatusBadRequest, "content is required")
	}
	cm.Content = in.Content
	return c.JSON(s.commentJSON(cm))
}

func (s *Server) deleteComment(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, err := s.ownedComment(c)
	if cm == nil {
		return err
	}
	delete(s.comments, cm.ID)
	return c.JSON(fiber.Map{"message": "deleted"})
}

func (s *Server) setLike(c *fiber.Ctx, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	p, ok := s.posts[paramID(c)]
	if !ok {
		return fail(c, fiber.StatusNotFound, "post not found")
	}
	if liked {
		p.Likes[u.ID] = struct{}{}
	} else {
		delete(p.Likes, u.ID)
	}
	return c.JSON(fiber.Map{"message": "ok", "like_count": len(p.Likes)})
}

func (s *Server) like(c *fiber.Ctx) error   { return s.setLike(c, true) }
func (s *Server) unlike(c *fiber.Ctx) error { return s.setLike(c, false) }

func (s *Server) myLikes(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	ids := make([]int64, 0)
	for _, p := range s.sortedPosts(nil) {
		if _, ok := p.Likes[u.ID]; ok {
			ids = append(ids, p.ID)
		}
	}
	return c.JSON(ids)
}

func (s *Server) postList(c *fiber.Ctx, filter func(u *user, p *post) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	items := make([]fiber.Map, 0)
	for _, p := range s.sortedPosts(func(p *post) bool { return filter(u, p) }) {
		items = append(items, s.postJSON(p))
	}
	return c.JSON(fiber.Map{"posts": items})
}

func (s *Server) myPosts(c *fiber.Ctx) error {
	return s.postList(c, func(u *user, p *post) bool { return p.UserID == u.ID })
}

func (s *Server) myLikedPosts(c *fiber.Ctx) error {
	return s.postList(c, func(u *user, p *post) bool {
		_, ok := p.Likes[u.ID]
		return ok
	})
}

func (s *Server) myComments(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	out := make([]fiber.Map, 0)
	for _, cm := range s.sortedComments(func(cm *comment) bool { return cm.UserID == u.ID }) {
		out = append(out, s.commentJSON(cm))
	}
	return c.JSON(out)
}

func (s *Server) updateNickname(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	var in struct {
		Nickname string `json:"nickname"`
	}
	if err := c.BodyParser(&in); err != nil || strings.TrimSpace(in.Nickname) == "" {
		return fail(c, fiber.StatusBadRequest, "nickname is required")
	}
	u.Nickname = in.Nickname
	return c.JSON(identityJSON(u))
}

func (s *Server) uploadAvatar(c *fiber.Ctx) error {
	s.mu.Lock()
	u, err := s.authed(c)
	s.mu.Unlock()
	if u == nil {
		return err
	}

	fh, ferr := c.FormFile("avatar")
	if ferr != nil {
		return fail(c, fiber.StatusBadRequest, "avatar file is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u.AvatarURL = fmt.Sprintf("https://cdn.test/avatars/%d-%s", s.nextID(), fh.Filename)
	return c.JSON(identityJSON(u))
}

func (s *Server) deleteAvatar(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	u.AvatarURL = ""
	return c.JSON(fiber.Map{"message": "avatar removed"})
}

func (s *Server) deleteAccount(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authed(c)
	if u == nil {
		return err
	}
	for id, p := range s.posts {
		if p.UserID == u.ID {
			delete(s.posts, id)
		}
		delete(p.Likes, u.ID)
	}
	for id, cm := range s.comments {
		if cm.UserID == u.ID {
			delete(s.comments, id)
		}
	}
	delete(s.users, u.ID)
	return c.JSON(fiber.Map{"message": "account deleted"})
}

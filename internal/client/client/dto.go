package client

import (
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/samber/lo"
)

// Wire representations of the API payloads.

type errorResponse struct {
	Message string `json:"message"`
}

type userRef struct {
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

type postResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	Users     userRef   `json:"users"`
	CreatedAt time.Time `json:"created_at"`
	LikeCount int       `json:"like_count"`
	ImageURL  string    `json:"image_url"`
}

type postListResponse struct {
	Posts      []postResponse `json:"posts"`
	TotalCount int            `json:"total_count"`
	Limit      int            `json:"limit"`
	Page       int            `json:"page"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Users     userRef   `json:"users"`
	PostTitle string    `json:"post_title"`
}

type loginResponse struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

type identityResponse struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

type imageResponse struct {
	ImageURL string `json:"image_url"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

type postRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

// cleanURL normalizes the "null" placeholder some rows carry instead of an
// absent avatar.
func cleanURL(s string) string {
	if s == "null" {
		return ""
	}
	return s
}

func (p postResponse) toModel() models.Post {
	return models.Post{
		ID:                p.ID,
		Title:             p.Title,
		Body:              p.Content,
		AuthorID:          p.UserID,
		AuthorDisplayName: p.Users.Nickname,
		CreatedAt:         p.CreatedAt,
		LikeCount:         p.LikeCount,
		ImageURL:          cleanURL(p.ImageURL),
	}
}

func postsToModel(in []postResponse) []models.Post {
	return lo.Map(in, func(p postResponse, _ int) models.Post { return p.toModel() })
}

func (c commentResponse) toModel() models.Comment {
	return models.Comment{
		ID:                c.ID,
		PostID:            c.PostID,
		AuthorID:          c.UserID,
		AuthorDisplayName: c.Users.Nickname,
		AuthorAvatarURL:   cleanURL(c.Users.AvatarURL),
		Content:           c.Content,
		CreatedAt:         c.CreatedAt,
	}
}

func (l postListResponse) toModel() models.PostPage {
	page := l.Page
	if page < 1 {
		page = 1
	}
	return models.PostPage{
		Items:      postsToModel(l.Posts),
		PageNumber: page,
		TotalPages: models.TotalPages(l.TotalCount, l.Limit),
		TotalCount: l.TotalCount,
	}
}

func (i identityResponse) toModel() models.Identity {
	return models.Identity{ID: i.ID, DisplayName: i.Nickname, AvatarURL: cleanURL(i.AvatarURL)}
}

package client

import (
	"context"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
)

// Client is the contract for talking to the community REST API.
// Authenticated calls carry the bearer token of the current session.
type Client interface {
	Close() error

	Register(ctx context.Context, creds models.Credentials) error
	Login(ctx context.Context, email, password string) (models.Session, error)

	ListPosts(ctx context.Context, page int, search string) (models.PostPage, error)
	GetPost(ctx context.Context, id int64) (models.Post, error)
	CreatePost(ctx context.Context, p models.NewPost) (models.Post, error)
	UpdatePost(ctx context.Context, id int64, title, body string) (models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	UploadPostImage(ctx context.Context, img models.Image) (string, error)

	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, postID int64, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	Like(ctx context.Context, postID int64) error
	Unlike(ctx context.Context, postID int64) error
	MyLikes(ctx context.Context) ([]int64, error)

	MyPosts(ctx context.Context) ([]models.Post, error)
	MyComments(ctx context.Context) ([]models.MyComment, error)
	MyLikedPosts(ctx context.Context) ([]models.Post, error)

	UpdateNickname(ctx context.Context, nickname string) (models.Identity, error)
	UploadAvatar(ctx context.Context, img models.Image) (models.Identity, error)
	DeleteAvatar(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// TokenSource supplies the bearer credential for outgoing requests.
// An empty token means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource returning a fixed value.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/google/uuid"
	"resty.dev/v3"
)

type RESTClient struct {
	client *resty.Client
	tokens TokenSource
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient builds a client for the API rooted at baseURL
// (e.g. "http://localhost:4000/api"). tokens may be nil for anonymous use.
func NewRESTClient(baseURL string, timeout time.Duration, tokens TokenSource) *RESTClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		AddResponseMiddleware(metricMiddleware)

	if tokens == nil {
		tokens = StaticToken("")
	}
	return &RESTClient{client: c, tokens: tokens}
}

func (c *RESTClient) Close() error {
	return c.client.Close()
}

// r starts a request bound to ctx carrying the current bearer token.
func (c *RESTClient) r(ctx context.Context) *resty.Request {
	req := c.client.R().
		WithContext(ctx).
		SetHeader(common.RequestIDHeaderName, uuid.NewString()).
		SetError(&errorResponse{})
	if tok := c.tokens.Token(); tok != "" {
		req.SetAuthToken(tok)
	}
	return req
}

// do executes req and maps transport failures and non-2xx statuses to errors.
func (c *RESTClient) do(req *resty.Request, method, url string) error {
	res, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	if res.IsError() {
		apiErr := &APIError{StatusCode: res.StatusCode()}
		if body, ok := res.Error().(*errorResponse); ok && body != nil {
			apiErr.Message = body.Message
		}
		return apiErr
	}
	return nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (c *RESTClient) Register(ctx context.Context, creds models.Credentials) error {
	req := c.r(ctx).SetBody(credentialsRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Nickname: creds.DisplayName,
	})
	return c.do(req, http.MethodPost, "/register")
}

func (c *RESTClient) Login(ctx context.Context, email, password string) (models.Session, error) {
	var out loginResponse
	req := c.r(ctx).SetBody(credentialsRequest{Email: email, Password: password}).SetResult(&out)
	if err := c.do(req, http.MethodPost, "/login"); err != nil {
		return models.Session{}, err
	}
	return models.Session{
		IdentityID:  out.UserID,
		DisplayName: out.Nickname,
		Token:       out.Token,
		AvatarURL:   cleanURL(out.AvatarURL),
	}, nil
}

func (c *RESTClient) ListPosts(ctx context.Context, page int, search string) (models.PostPage, error) {
	var out postListResponse
	req := c.r(ctx).
		SetQueryParam("search", search).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(&out)
	if err := c.do(req, http.MethodGet, "/posts"); err != nil {
		return models.PostPage{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) GetPost(ctx context.Context, postID int64) (models.Post, error) {
	var out postResponse
	req := c.r(ctx).SetPathParam("id", id(postID)).SetResult(&out)
	if err := c.do(req, http.MethodGet, "/posts/{id}"); err != nil {
		return models.Post{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) CreatePost(ctx context.Context, p models.NewPost) (models.Post, error) {
	var out postResponse
	req := c.r(ctx).
		SetBody(postRequest{Title: p.Title, Content: p.Body, ImageURL: p.ImageURL}).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/posts"); err != nil {
		return models.Post{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) UpdatePost(ctx context.Context, postID int64, title, body string) (models.Post, error) {
	var out postResponse
	req := c.r(ctx).
		SetPathParam("id", id(postID)).
		SetBody(postRequest{Title: title, Content: body}).
		SetResult(&out)
	if err := c.do(req, http.MethodPut, "/posts/{id}"); err != nil {
		return models.Post{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) DeletePost(ctx context.Context, postID int64) error {
	return c.do(c.r(ctx).SetPathParam("id", id(postID)), http.MethodDelete, "/posts/{id}")
}

func (c *RESTClient) UploadPostImage(ctx context.Context, img models.Image) (string, error) {
	var out imageResponse
	req := c.r(ctx).
		SetFileReader("image", img.Name, bytes.NewReader(img.Data)).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/posts/image-upload"); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

func (c *RESTClient) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	var out []commentResponse
	req := c.r(ctx).SetPathParam("id", id(postID)).SetResult(&out)
	if err := c.do(req, http.MethodGet, "/posts/{id}/comments"); err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(out))
	for _, cm := range out {
		comments = append(comments, cm.toModel())
	}
	return comments, nil
}

func (c *RESTClient) CreateComment(ctx context.Context, postID int64, content string) (models.Comment, error) {
	var out commentResponse
	req := c.r(ctx).
		SetPathParam("id", id(postID)).
		SetBody(contentRequest{Content: content}).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/posts/{id}/comments"); err != nil {
		return models.Comment{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) UpdateComment(ctx context.Context, commentID int64, content string) (models.Comment, error) {
	var out commentResponse
	req := c.r(ctx).
		SetPathParam("id", id(commentID)).
		SetBody(contentRequest{Content: content}).
		SetResult(&out)
	if err := c.do(req, http.MethodPut, "/comments/{id}"); err != nil {
		return models.Comment{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) DeleteComment(ctx context.Context, commentID int64) error {
	return c.do(c.r(ctx).SetPathParam("id", id(commentID)), http.MethodDelete, "/comments/{id}")
}

func (c *RESTClient) Like(ctx context.Context, postID int64) error {
	return c.do(c.r(ctx).SetPathParam("id", id(postID)), http.MethodPost, "/posts/{id}/like")
}

func (c *RESTClient) Unlike(ctx context.Context, postID int64) error {
	return c.do(c.r(ctx).SetPathParam("id", id(postID)), http.MethodDelete, "/posts/{id}/like")
}

func (c *RESTClient) MyLikes(ctx context.Context) ([]int64, error) {
	var out []int64
	if err := c.do(c.r(ctx).SetResult(&out), http.MethodGet, "/user/my-likes"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RESTClient) MyPosts(ctx context.Context) ([]models.Post, error) {
	var out postListResponse
	if err := c.do(c.r(ctx).SetResult(&out), http.MethodGet, "/user/my-posts"); err != nil {
		return nil, err
	}
	return postsToModel(out.Posts), nil
}

func (c *RESTClient) MyLikedPosts(ctx context.Context) ([]models.Post, error) {
	var out postListResponse
	if err := c.do(c.r(ctx).SetResult(&out), http.MethodGet, "/user/my-likes-posts"); err != nil {
		return nil, err
	}
	return postsToModel(out.Posts), nil
}

func (c *RESTClient) MyComments(ctx context.Context) ([]models.MyComment, error) {
	var out []commentResponse
	if err := c.do(c.r(ctx).SetResult(&out), http.MethodGet, "/user/my-comments"); err != nil {
		return nil, err
	}
	comments := make([]models.MyComment, 0, len(out))
	for _, cm := range out {
		comments = append(comments, models.MyComment{Comment: cm.toModel(), PostTitle: cm.PostTitle})
	}
	return comments, nil
}

func (c *RESTClient) UpdateNickname(ctx context.Context, nickname string) (models.Identity, error) {
	var out identityResponse
	req := c.r(ctx).SetBody(nicknameRequest{Nickname: nickname}).SetResult(&out)
	if err := c.do(req, http.MethodPut, "/user/nickname"); err != nil {
		return models.Identity{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) UploadAvatar(ctx context.Context, img models.Image) (models.Identity, error) {
	var out identityResponse
	req := c.r(ctx).
		SetFileReader("avatar", img.Name, bytes.NewReader(img.Data)).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/user/avatar"); err != nil {
		return models.Identity{}, err
	}
	return out.toModel(), nil
}

func (c *RESTClient) DeleteAvatar(ctx context.Context) error {
	return c.do(c.r(ctx), http.MethodDelete, "/user/avatar")
}

func (c *RESTClient) DeleteAccount(ctx context.Context) error {
	return c.do(c.r(ctx), http.MethodDelete, "/user")
}

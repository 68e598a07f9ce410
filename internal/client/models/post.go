package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

// Post is a published post as rendered by list and detail views.
type Post struct {
	ID                int64
	Title             string
	Body              string
	AuthorID          int64
	AuthorDisplayName string
	CreatedAt         time.Time
	LikeCount         int
	ImageURL          string
}

// PostPage is one page of a post collection. It is rebuilt on every fetch.
type PostPage struct {
	Items      []Post
	PageNumber int
	TotalPages int
	TotalCount int
}

// IsEmpty reports whether the page has no posts.
func (p PostPage) IsEmpty() bool {
	return len(p.Items) == 0
}

// HasPrev reports whether a previous page exists.
func (p PostPage) HasPrev() bool {
	return p.PageNumber > 1
}

// HasNext reports whether a next page exists.
func (p PostPage) HasNext() bool {
	return p.PageNumber < p.TotalPages
}

// PageNumbers lists 1..TotalPages for pagination controls.
func (p PostPage) PageNumbers() []int {
	pages := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

// TotalPages computes ceil(total/pageSize). A non-positive page size yields 0.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// NewPost is the payload of a post creation.
type NewPost struct {
	Title    string
	Body     string
	ImageURL string
}

// emptyEditorBody is what the rich-text editor holds when nothing was typed.
const emptyEditorBody = "<p><br></p>"

// BlankBody reports whether body has no content.
func BlankBody(body string) bool {
	b := strings.TrimSpace(body)
	return b == "" || b == emptyEditorBody
}

// ValidatePost checks the fields required to publish or save a post.
func ValidatePost(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return common.Invalid("title", "title is required")
	}
	if BlankBody(body) {
		return common.Invalid("body", "content is required")
	}
	return nil
}

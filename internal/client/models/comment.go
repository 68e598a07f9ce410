package models

import "time"

// Comment belongs to exactly one post.
type Comment struct {
	ID                int64
	PostID            int64
	AuthorID          int64
	AuthorDisplayName string
	AuthorAvatarURL   string
	Content           string
	CreatedAt         time.Time
}

// MyComment is a comment listed in the "my activity" view together with
// the title of the post it belongs to.
type MyComment struct {
	Comment
	PostTitle string
}

// Package common contains shared constants and error kinds used across
// gophboard components.
package common

// RequestIDHeaderName is the HTTP header carrying a per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"

// MaxCommentLength is the maximum number of characters accepted in a comment.
const MaxCommentLength = 500

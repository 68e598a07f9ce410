// Package ui declares the presentation collaborators the view controllers
// call into: navigation and confirmation of destructive actions.
package ui

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

// Route names a screen.
type Route string

const (
	RoutePosts   Route = "posts"
	RoutePost    Route = "post"
	RouteCompose Route = "compose"
	RouteLogin   Route = "login"
	RouteProfile Route = "profile"
)

// Navigator switches screens.
type Navigator interface {
	Navigate(ctx context.Context, to Route)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Ask runs c and turns a refusal into common.ErrNotConfirmed.
func Ask(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil {
		return common.ErrNotConfirmed
	}
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNotConfirmed
	}
	return nil
}

// AlwaysConfirm accepts every prompt.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(context.Context, string) (bool, error) { return true, nil }

// NeverConfirm refuses every prompt.
type NeverConfirm struct{}

func (NeverConfirm) Confirm(context.Context, string) (bool, error) { return false, nil }

// Recorder is a Navigator that remembers where it was sent.
type Recorder struct {
	mu     sync.Mutex
	routes []Route
}

func (r *Recorder) Navigate(_ context.Context, to Route) {
	r.mu.Lock()
	r.routes = append(r.routes, to)
	r.mu.Unlock()
}

// Routes returns every route navigated to, oldest first.
func (r *Recorder) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// Last returns the latest route, or "" if none.
func (r *Recorder) Last() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

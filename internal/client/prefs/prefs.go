// Package prefs stores local UI preferences.
package prefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
)

const KeyTheme = "theme"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", common.Invalid("theme", fmt.Sprintf("unknown theme %q", s))
	}
}

func (t Theme) Other() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type Store struct {
	repo metadata.Repository
	log  logging.Logger
}

func NewStore(repo metadata.Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log}
}

// Theme returns the saved theme, light when nothing valid is saved.
func (s *Store) Theme(ctx context.Context) Theme {
	raw, ok, err := s.repo.Get(ctx, KeyTheme)
	if err != nil {
		s.log.Warn(ctx, "theme not read", "err", err)
		return ThemeLight
	}
	if !ok {
		return ThemeLight
	}
	t, err := ParseTheme(raw)
	if err != nil {
		s.log.Warn(ctx, "ignoring saved theme", "value", raw)
		return ThemeLight
	}
	return t
}

func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, KeyTheme, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Store) ToggleTheme(ctx context.Context) (Theme, error) {
	t := s.Theme(ctx).Other()
	if err := s.SetTheme(ctx, t); err != nil {
		return "", err
	}
	return t, nil
}

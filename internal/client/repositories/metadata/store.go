package metadata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophboard/internal/dbx"
)

// Store is a Repository over a database handle that can also group several
// writes into one transaction.
type Store struct {
	*SQLiteRepository
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{SQLiteRepository: NewSQLiteRepository(db), db: db}
}

// SetMany writes all pairs atomically.
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	return s.Update(ctx, func(ctx context.Context, r Repository) error {
		for k, v := range values {
			if err := r.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update runs fn with a Repository bound to a single transaction.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewSQLiteRepository(tx))
	})
	if err != nil {
		return fmt.Errorf("metadata update: %w", err)
	}
	return nil
}

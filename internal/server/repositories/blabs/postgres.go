package blabs

import (
	"context"
	"fmt"

	"github.com/ChutneyCheeseball/blabber/internal/dbx"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, blab *models.Blab) (*models.Blab, error) {

	query :=
		`INSERT INTO blabs (id, author_id, content)
         VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		blab.ID, blab.AuthorID, blab.Content).Scan(&blab.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return blab, nil
}

// GlobalFeed returns every blab with its author's username, newest first.
func (r *PostgresRepository) GlobalFeed(ctx context.Context) ([]models.FeedItem, error) {
	query :=
		`SELECT b.content, b.created_at, u.username
		 FROM blabs b
		 JOIN users u ON u.id = b.author_id
		 ORDER BY b.created_at DESC
		 `

	return r.queryFeed(ctx, query)
}

// MentionedFeed returns blabs with at least one mention edge targeting the
// user, newest first. The EXISTS form cannot multiply rows, so a blab
// mentioning the user several times still appears once.
func (r *PostgresRepository) MentionedFeed(ctx context.Context, userID string) ([]models.FeedItem, error) {
	query :=
		`SELECT b.content, b.created_at, u.username
		 FROM blabs b
		 JOIN users u ON u.id = b.author_id
		 WHERE EXISTS (
		     SELECT 1 FROM blab_mentions m
		     WHERE m.blab_id = b.id AND m.user_id = $1
		 )
		 ORDER BY b.created_at DESC
		 `

	return r.queryFeed(ctx, query, userID)
}

// Timeline returns blabs the user authored or is mentioned in, newest
// first. The OR over a single scan of blabs deduplicates the union.
func (r *PostgresRepository) Timeline(ctx context.Context, userID string) ([]models.FeedItem, error) {
	query :=
		`SELECT b.content, b.created_at, u.username
		 FROM blabs b
		 JOIN users u ON u.id = b.author_id
		 WHERE b.author_id = $1 OR EXISTS (
		     SELECT 1 FROM blab_mentions m
		     WHERE m.blab_id = b.id AND m.user_id = $1
		 )
		 ORDER BY b.created_at DESC
		 `

	return r.queryFeed(ctx, query, userID)
}

func (r *PostgresRepository) queryFeed(ctx context.Context, query string, args ...any) ([]models.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := []models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		if err := rows.Scan(&item.Content, &item.CreatedAt, &item.Username); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

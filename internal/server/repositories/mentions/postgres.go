package mentions

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

func (r *PostgresRepository) Create(ctx context.Context, mention *models.Mention) (*models.Mention, error) {

	query :=
		`INSERT INTO blab_mentions (id, blab_id, user_id)
         VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query,
		mention.ID, mention.BlabID, mention.UserID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return mention, nil
}

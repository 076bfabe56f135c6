package mentions

import (
	"context"

	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, mention *models.Mention) (*models.Mention, error)
}

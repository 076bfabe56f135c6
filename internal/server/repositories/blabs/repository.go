package blabs

import (
	"context"

	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, blab *models.Blab) (*models.Blab, error)
	GlobalFeed(ctx context.Context) ([]models.FeedItem, error)
	MentionedFeed(ctx context.Context, userID string) ([]models.FeedItem, error)
	Timeline(ctx context.Context, userID string) ([]models.FeedItem, error)
}

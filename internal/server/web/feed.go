package web

import (
	"time"

	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

type feedItemResponse struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
}

// feedResponse converts feed rows to their wire shape. Always returns a
// non-nil slice so empty feeds encode as [] rather than null.
func feedResponse(items []models.FeedItem) []feedItemResponse {
	out := make([]feedItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, feedItemResponse{
			Content:   it.Content,
			CreatedAt: it.CreatedAt,
			Username:  it.Username,
		})
	}
	return out
}

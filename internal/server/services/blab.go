package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/ChutneyCheeseball/blabber/internal/common"
	"github.com/ChutneyCheeseball/blabber/internal/dbx"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// mentionPattern matches "@" followed by one or more word characters.
var mentionPattern = regexp.MustCompile(`@(\w+)`)

// BlabService creates posts with their mention edges and serves the three
// feed views.
type BlabService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewBlabService constructs a BlabService.
func NewBlabService(db *sql.DB, m repomanager.RepositoryManager) *BlabService {
	return &BlabService{db: db, repomanager: m}
}

// CreateBlab inserts the post and links its mentions in one transaction, so
// a partial failure never leaves a post without its edges.
//
// Mention rules: candidate names are scanned left to right and kept in
// order, duplicates included — "@bob ... @bob" produces two edges. The
// author's own name never produces an edge, and names that resolve to no
// user are plain text, not an error.
func (s *BlabService) CreateBlab(ctx context.Context, author *models.User, content string) (*models.Blab, error) {
	blab := &models.Blab{ID: uuid.NewString(), AuthorID: author.ID, Content: content}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Blabs(tx).Create(ctx, blab); err != nil {
			return fmt.Errorf("error creating blab: %w", err)
		}

		userRepo := s.repomanager.Users(tx)
		mentionRepo := s.repomanager.Mentions(tx)

		for _, name := range extractMentions(content) {
			if name == author.Username {
				continue
			}

			mentioned, err := userRepo.GetByUsername(ctx, name)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("error resolving mention %q: %w", name, err)
			}

			mention := &models.Mention{ID: uuid.NewString(), BlabID: blab.ID, UserID: mentioned.ID}
			if _, err := mentionRepo.Create(ctx, mention); err != nil {
				return fmt.Errorf("error creating mention edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return blab, nil
}

// GlobalFeed returns every blab, newest first.
func (s *BlabService) GlobalFeed(ctx context.Context) ([]models.FeedItem, error) {
	return s.repomanager.Blabs(s.db).GlobalFeed(ctx)
}

// MentionedFeed returns blabs mentioning the user, newest first.
func (s *BlabService) MentionedFeed(ctx context.Context, userID string) ([]models.FeedItem, error) {
	return s.repomanager.Blabs(s.db).MentionedFeed(ctx, userID)
}

// Timeline returns the deduplicated union of the user's own blabs and blabs
// mentioning them, newest first.
func (s *BlabService) Timeline(ctx context.Context, userID string) ([]models.FeedItem, error) {
	return s.repomanager.Blabs(s.db).Timeline(ctx, userID)
}

// extractMentions returns the candidate names tagged in content, in order
// of appearance, without deduplication.
func extractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

package blabs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func feedRows(items ...models.FeedItem) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"content", "created_at", "username"})
	for _, it := range items {
		rows.AddRow(it.Content, it.CreatedAt, it.Username)
	}
	return rows
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+blabs\s*\(id,\s*author_id,\s*content\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("b-1", "u-1", "hello world").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	b := &models.Blab{ID: "b-1", AuthorID: "u-1", Content: "hello world"}
	got, err := repo.Create(context.Background(), b)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("expected CreatedAt to be populated, got %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+blabs`).
		WithArgs("b-1", "u-1", "x").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Blab{ID: "b-1", AuthorID: "u-1", Content: "x"})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestGlobalFeed_JoinsAuthorAndOrdersDescending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+b\.content,\s*b\.created_at,\s*u\.username\s+FROM\s+blabs\s+b\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*b\.author_id\s+ORDER\s+BY\s+b\.created_at\s+DESC\s*$`

	newer := time.Now()
	older := newer.Add(-time.Hour)
	mock.ExpectQuery(q).WillReturnRows(feedRows(
		models.FeedItem{Content: "second", CreatedAt: newer, Username: "bob"},
		models.FeedItem{Content: "first", CreatedAt: older, Username: "alice"},
	))

	got, err := repo.GlobalFeed(context.Background())
	if err != nil {
		t.Fatalf("GlobalFeed error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Content != "second" || got[0].Username != "bob" {
		t.Fatalf("unexpected first item: %+v", got[0])
	}
}

func TestGlobalFeed_EmptyResultIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+b\.content`).WillReturnRows(feedRows())

	got, err := repo.GlobalFeed(context.Background())
	if err != nil {
		t.Fatalf("GlobalFeed error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMentionedFeed_FiltersByMentionExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+b\.content,\s*b\.created_at,\s*u\.username\s+FROM\s+blabs\s+b\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*b\.author_id\s+WHERE\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+blab_mentions\s+m\s+WHERE\s+m\.blab_id\s*=\s*b\.id\s+AND\s+m\.user_id\s*=\s*\$1\s*\)\s+ORDER\s+BY\s+b\.created_at\s+DESC\s*$`

	mock.ExpectQuery(q).
		WithArgs("u-2").
		WillReturnRows(feedRows(
			models.FeedItem{Content: "hi @bob", CreatedAt: time.Now(), Username: "alice"},
		))

	got, err := repo.MentionedFeed(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("MentionedFeed error: %v", err)
	}
	if len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("unexpected items: %+v", got)
	}
}

func TestTimeline_AuthoredOrMentioned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+b\.content,\s*b\.created_at,\s*u\.username\s+FROM\s+blabs\s+b\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*b\.author_id\s+WHERE\s+b\.author_id\s*=\s*\$1\s+OR\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+blab_mentions\s+m\s+WHERE\s+m\.blab_id\s*=\s*b\.id\s+AND\s+m\.user_id\s*=\s*\$1\s*\)\s+ORDER\s+BY\s+b\.created_at\s+DESC\s*$`

	newer := time.Now()
	older := newer.Add(-time.Minute)
	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(feedRows(
			models.FeedItem{Content: "mentioned in this one", CreatedAt: newer, Username: "bob"},
			models.FeedItem{Content: "my own post", CreatedAt: older, Username: "alice"},
		))

	got, err := repo.Timeline(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Timeline error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Content != "mentioned in this one" {
		t.Fatalf("expected newest first, got %+v", got[0])
	}
}

func TestQueryFeed_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+b\.content`).WillReturnError(errors.New("conn reset"))

	_, err := repo.GlobalFeed(context.Background())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/counseling-api/internal/models"
)

func TestListArticlesSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewKnowledgeRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("AND category = $1 AND (LOWER(title) LIKE $2 OR LOWER(content) LIKE $2 OR EXISTS (SELECT 1 FROM UNNEST(tags) t WHERE LOWER(t) LIKE $2)) ORDER BY title ASC LIMIT 50")).
		WithArgs("grief", "%loss%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "category", "tags", "language", "created_at", "updated_at"}).
			AddRow("k1", "Coping with loss", "...", "grief", "{loss,family}", "en", now, now))

	articles, err := repo.ListArticles(context.Background(), models.ContentFilter{Category: "grief", Search: "Loss"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Coping with loss", articles[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStoriesByTheme(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewKnowledgeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND language = $1 AND $2 = ANY (themes) ORDER BY title ASC LIMIT 10")).
		WithArgs("yo", "courage").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "summary", "content", "region", "language", "themes", "age_group", "created_at"}))

	stories, err := repo.ListStories(context.Background(), models.ContentFilter{Language: "yo", Category: "courage", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, stories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

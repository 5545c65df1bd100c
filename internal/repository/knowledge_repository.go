package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/counseling-api/internal/models"
)

// KnowledgeRepository serves read-only session support content.
type KnowledgeRepository struct {
	db *sqlx.DB
}

// NewKnowledgeRepository constructs the repository.
func NewKnowledgeRepository(db *sqlx.DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

func contentLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

// ListArticles returns active knowledge base entries.
func (r *KnowledgeRepository) ListArticles(ctx context.Context, filter models.ContentFilter) ([]models.KnowledgeArticle, error) {
	var query strings.Builder
	query.WriteString(`SELECT id, title, content, category, tags, language, created_at, updated_at FROM knowledge_base WHERE active = TRUE`)
	var args []interface{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&query, ` AND category = $%d`, len(args))
	}
	if filter.Language != "" {
		args = append(args, filter.Language)
		fmt.Fprintf(&query, ` AND language = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		fmt.Fprintf(&query, ` AND (LOWER(title) LIKE $%[1]d OR LOWER(content) LIKE $%[1]d OR EXISTS (SELECT 1 FROM UNNEST(tags) t WHERE LOWER(t) LIKE $%[1]d))`, len(args))
	}
	fmt.Fprintf(&query, ` ORDER BY title ASC LIMIT %d`, contentLimit(filter.Limit))

	var articles []models.KnowledgeArticle
	if err := r.db.SelectContext(ctx, &articles, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list knowledge base: %w", err)
	}
	return articles, nil
}

// ListStories returns active cultural stories.
func (r *KnowledgeRepository) ListStories(ctx context.Context, filter models.ContentFilter) ([]models.CulturalStory, error) {
	var query strings.Builder
	query.WriteString(`SELECT id, title, summary, content, region, language, themes, age_group, created_at FROM cultural_stories WHERE active = TRUE`)
	var args []interface{}
	if filter.Language != "" {
		args = append(args, filter.Language)
		fmt.Fprintf(&query, ` AND language = $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&query, ` AND $%d = ANY (themes)`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		fmt.Fprintf(&query, ` AND (LOWER(title) LIKE $%d OR LOWER(summary) LIKE $%d)`, len(args), len(args))
	}
	fmt.Fprintf(&query, ` ORDER BY title ASC LIMIT %d`, contentLimit(filter.Limit))

	var stories []models.CulturalStory
	if err := r.db.SelectContext(ctx, &stories, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list cultural stories: %w", err)
	}
	return stories, nil
}

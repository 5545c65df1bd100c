package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/pkg/cache"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type knowledgeRepository interface {
	ListArticles(ctx context.Context, filter models.ContentFilter) ([]models.KnowledgeArticle, error)
	ListStories(ctx context.Context, filter models.ContentFilter) ([]models.CulturalStory, error)
}

type contentCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// KnowledgeService serves read-only reference content. Lookups are cached briefly when Redis is on.
type KnowledgeService struct {
	repo   knowledgeRepository
	cache  contentCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewKnowledgeService constructs the service.
func NewKnowledgeService(repo knowledgeRepository, cache contentCache, ttl time.Duration, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &KnowledgeService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func contentKey(kind string, f models.ContentFilter) string {
	return cache.Key("content", kind, strings.ToLower(f.Category), strings.ToLower(f.Language), strings.ToLower(f.Search), strconv.Itoa(f.Limit))
}

func normaliseFilter(f models.ContentFilter) models.ContentFilter {
	f.Category = strings.TrimSpace(f.Category)
	f.Language = strings.TrimSpace(f.Language)
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Articles returns knowledge base entries.
func (s *KnowledgeService) Articles(ctx context.Context, filter models.ContentFilter) ([]models.KnowledgeArticle, error) {
	filter = normaliseFilter(filter)
	key := contentKey("articles", filter)

	var cached []models.KnowledgeArticle
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}
	articles, err := s.repo.ListArticles(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list knowledge base")
	}
	if articles == nil {
		articles = []models.KnowledgeArticle{}
	}
	s.store(ctx, key, articles)
	return articles, nil
}

// Stories returns cultural stories.
func (s *KnowledgeService) Stories(ctx context.Context, filter models.ContentFilter) ([]models.CulturalStory, error) {
	filter = normaliseFilter(filter)
	key := contentKey("stories", filter)

	var cached []models.CulturalStory
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}
	stories, err := s.repo.ListStories(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cultural stories")
	}
	if stories == nil {
		stories = []models.CulturalStory{}
	}
	s.store(ctx, key, stories)
	return stories, nil
}

func (s *KnowledgeService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *KnowledgeService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Debug("content cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

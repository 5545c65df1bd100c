package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/pkg/response"
)

const defaultContentLimit = 50

type knowledgeService interface {
	Articles(ctx context.Context, filter models.ContentFilter) ([]models.KnowledgeArticle, error)
	Stories(ctx context.Context, filter models.ContentFilter) ([]models.CulturalStory, error)
}

// KnowledgeHandler serves read-only reference content for sessions.
type KnowledgeHandler struct {
	service knowledgeService
}

// NewKnowledgeHandler constructs the handler.
func NewKnowledgeHandler(service knowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

func contentFilter(c *gin.Context) (models.ContentFilter, error) {
	limit, err := queryInt(c, "limit", defaultContentLimit)
	if err != nil {
		return models.ContentFilter{}, err
	}
	if limit <= 0 || limit > 200 {
		limit = defaultContentLimit
	}
	return models.ContentFilter{
		Category: c.Query("category"),
		Language: c.Query("language"),
		Search:   c.Query("search"),
		Limit:    limit,
	}, nil
}

// Articles godoc
// @Summary Knowledge base articles
// @Tags Knowledge
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /knowledge-base [get]
func (h *KnowledgeHandler) Articles(c *gin.Context) {
	filter, err := contentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	articles, err := h.service.Articles(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, articles)
}

// Stories godoc
// @Summary Cultural stories
// @Tags Knowledge
// @Produce json
// @Param language query string false "Language"
// @Param search query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /cultural-stories [get]
func (h *KnowledgeHandler) Stories(c *gin.Context) {
	filter, err := contentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stories, err := h.service.Stories(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stories)
}

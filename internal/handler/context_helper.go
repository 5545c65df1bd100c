package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/middleware"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
	"github.com/noah-isme/counseling-api/pkg/response"
)

const maxCommandBody = 1 << 20

// callerFromContext resolves the authenticated caller, writing a 401 when absent.
func callerFromContext(c *gin.Context) (models.Caller, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
		return models.Caller{}, false
	}
	return claims.Caller(), true
}

// readCommandBody reads a tagged-action JSON body.
func readCommandBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCommandBody))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read request body"))
		return nil, false
	}
	return body, true
}

func commandError(err error, payload string) error {
	if errors.Is(err, dto.ErrUnknownAction) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+payload+" payload")
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+key)
	}
	return value, nil
}

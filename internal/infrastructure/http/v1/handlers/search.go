package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"cmsearch/internal/core/apperror"
	"cmsearch/internal/core/security"
	"cmsearch/internal/domain/search"
	"cmsearch/internal/infrastructure/http/v1/dto"
	"cmsearch/internal/infrastructure/http/v1/middleware"
)

// SearchService is the engine entry point the handler depends on.
type SearchService interface {
	Search(ctx context.Context, caller security.Caller, req search.Request) (*search.Result, error)
}

// SearchHandler exposes the search engine over HTTP.
type SearchHandler struct {
	BaseHandler
	service SearchService
}

func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		h.HandleError(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	var req dto.SearchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Search(c.Request.Context(), caller, req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.OK(c, dto.FromSearchResult(res))
}

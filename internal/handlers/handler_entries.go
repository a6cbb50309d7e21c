package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/dto"
	"github.com/ledgerpipe/ledgerpipe/internal/middleware"
)

// entryHandler handles read requests for ledger entries.
type entryHandler struct {
	queryService portssvc.QuerySvcFacade
}

// newEntryHandler creates a new entryHandler.
func newEntryHandler(queryService portssvc.QuerySvcFacade) *entryHandler {
	return &entryHandler{
		queryService: queryService,
	}
}

// registerEntryRoutes registers entry read routes.
func registerEntryRoutes(rg *gin.RouterGroup, queryService portssvc.QuerySvcFacade) {
	h := newEntryHandler(queryService)

	rg.GET("/entries", h.listEntries)
}

func (h *entryHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())

	// Optional filter to one external account.
	externalAccountID := c.Query("account")

	entries, meta, err := h.queryService.ListEntries(c.Request.Context(), organizationID, env, externalAccountID, paginationFromQuery(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list entries from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		return
	}

	c.JSON(http.StatusOK, dto.ListEntriesResponse{
		Entries:    dto.ToEntryResponses(entries),
		Pagination: meta,
	})
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/dto"
	"github.com/ledgerpipe/ledgerpipe/internal/middleware"
)

// intentHandler handles HTTP requests related to money-movement intents.
type intentHandler struct {
	intentService portssvc.IntentSvcFacade
}

// newIntentHandler creates a new intentHandler.
func newIntentHandler(intentService portssvc.IntentSvcFacade) *intentHandler {
	return &intentHandler{
		intentService: intentService,
	}
}

// registerIntentRoutes registers routes related to intents.
func registerIntentRoutes(rg *gin.RouterGroup, intentService portssvc.IntentSvcFacade) {
	h := newIntentHandler(intentService)

	intents := rg.Group("/intents")
	{
		intents.POST("", h.createIntent)
		intents.GET("", h.listIntents)
		intents.GET("/:intentID", h.getIntent)
	}
}

func (h *intentHandler) createIntent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())

	createReq := dto.CreateIntentRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreateIntent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	intent, err := h.intentService.CreateIntent(c.Request.Context(), organizationID, env, createReq)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating intent", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create intent in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create intent"})
		}
		return
	}

	logger.Info("Intent created",
		slog.String("intent_id", intent.IntentID),
		slog.String("status", string(intent.Status)),
	)

	// Replayed idempotency keys land here too; the body always reflects the
	// current intent state.
	c.JSON(http.StatusOK, dto.ToIntentResponse(intent))
}

func (h *intentHandler) getIntent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	intentID := c.Param("intentID")

	intent, err := h.intentService.GetIntent(c.Request.Context(), organizationID, intentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Intent not found"})
			return
		}
		logger.Error("Failed to get intent from service", slog.String("error", err.Error()), slog.String("intent_id", intentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve intent"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIntentResponse(intent))
}

func (h *intentHandler) listIntents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())

	var status domain.IntentStatus
	if raw := c.Query("status"); raw != "" {
		status = domain.IntentStatus(strings.ToUpper(raw))
		switch status {
		case domain.IntentPending, domain.IntentPosted, domain.IntentFailed:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}

	intents, meta, err := h.intentService.ListIntents(c.Request.Context(), organizationID, env, status, paginationFromQuery(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list intents from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list intents"})
		return
	}

	c.JSON(http.StatusOK, dto.ListIntentsResponse{
		Intents:    dto.ToIntentResponses(intents),
		Pagination: meta,
	})
}

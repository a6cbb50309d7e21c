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

// transactionHandler handles read requests for posted transactions.
type transactionHandler struct {
	queryService portssvc.QuerySvcFacade
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(queryService portssvc.QuerySvcFacade) *transactionHandler {
	return &transactionHandler{
		queryService: queryService,
	}
}

// registerTransactionRoutes registers transaction read routes.
func registerTransactionRoutes(rg *gin.RouterGroup, queryService portssvc.QuerySvcFacade) {
	h := newTransactionHandler(queryService)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.getTransactionByIdempotencyKey)
		transactions.GET("/:transactionID", h.getTransaction)
	}
}

func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.queryService.GetTransaction(c.Request.Context(), organizationID, env, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to get transaction from service", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// getTransactionByIdempotencyKey is the re-query path for callers whose
// posting attempt timed out: whatever outcome the key holds is returned.
func (h *transactionHandler) getTransactionByIdempotencyKey(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())

	key := c.Query("idempotency_key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idempotency_key query parameter is required"})
		return
	}

	txn, err := h.queryService.GetTransactionByIdempotencyKey(c.Request.Context(), organizationID, env, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to get transaction by idempotency key", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

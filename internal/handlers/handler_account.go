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

// accountHandler handles read requests for ledger accounts and balances.
type accountHandler struct {
	queryService portssvc.QuerySvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(queryService portssvc.QuerySvcFacade) *accountHandler {
	return &accountHandler{
		queryService: queryService,
	}
}

// registerAccountRoutes registers account read routes.
func registerAccountRoutes(rg *gin.RouterGroup, queryService portssvc.QuerySvcFacade) {
	h := newAccountHandler(queryService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.GET("/:externalAccountID", h.getAccount)
	}
}

func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())
	externalAccountID := c.Param("externalAccountID")

	// Accounts are keyed per currency within a scope.
	currency := c.Query("currency")
	if currency == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currency query parameter is required"})
		return
	}

	account, balance, err := h.queryService.GetAccount(c.Request.Context(), organizationID, env, externalAccountID, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get account from service", slog.String("error", err.Error()), slog.String("external_account_id", externalAccountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve account"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account, balance))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organizationID")
	env := middleware.GetEnvironmentFromCtx(c.Request.Context())

	accounts, meta, err := h.queryService.ListAccounts(c.Request.Context(), organizationID, env, paginationFromQuery(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list accounts from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}

	responses := make([]dto.AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = dto.ToAccountResponse(&accounts[i], nil)
	}

	c.JSON(http.StatusOK, dto.ListAccountsResponse{
		Accounts:   responses,
		Pagination: meta,
	})
}

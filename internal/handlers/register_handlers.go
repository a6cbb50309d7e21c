package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/middleware"
	"github.com/ledgerpipe/ledgerpipe/internal/platform/config"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	RegisterValidators()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations.
// Every route is organization scoped; the environment scope comes from the
// X-Environment header handled by the middleware.
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	orgs := r.Group("/api/v1/organizations/:organizationID", middleware.EnvironmentMiddleware())

	registerIntentRoutes(orgs, services.Intent)
	registerPostingRoutes(orgs, services.Posting)
	registerTransactionRoutes(orgs, services.Query)
	registerEntryRoutes(orgs, services.Query)
	registerAccountRoutes(orgs, services.Query)
}

// paginationFromQuery parses page/per_page query parameters, leaving
// clamping to the services.
func paginationFromQuery(c *gin.Context) pagination.Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(pagination.DefaultPerPage)))
	return pagination.Params{Page: page, PerPage: perPage}
}

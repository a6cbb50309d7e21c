package services

import (
	portsevents "github.com/ledgerpipe/ledgerpipe/internal/core/ports/events"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher portsevents.Publisher) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Posting is initialized first since the intent service posts through it.
	container.Posting = NewPostingService(repos.LedgerRepo, repos.AccountRepo, publisher)
	container.Intent = NewIntentService(repos.IntentRepo, container.Posting, cfg.FundingAccount)
	container.Query = NewQueryService(repos.LedgerRepo, repos.AccountRepo)

	return container
}

package repositories

// RepositoryProvider holds instances of all the repositories.
type RepositoryProvider struct {
	AccountRepo AccountRepositoryFacade
	LedgerRepo  LedgerRepositoryWithTx
	IntentRepo  IntentRepositoryFacade
}

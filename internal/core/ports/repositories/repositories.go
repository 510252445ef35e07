package repositories

// RepositoryProvider bundles all repository implementations for wiring into
// the service container.
type RepositoryProvider struct {
	TransferRepo     TransferRepositoryFacade
	FundRepo         FundRepositoryFacade
	SequenceRepo     SequenceRepository
	RejectionRepo    RejectionRepository
	UserRepo         UserRepository
	NotificationRepo NotificationRepository
}

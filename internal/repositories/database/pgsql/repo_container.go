package pgsql

import (
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires all pgsql repositories against one pool. The
// transfer repository receives the sequence and fund repositories so code
// allocation and the ledger leg of decisions run inside its transactions.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	sequenceRepo := newPgxSequenceRepository(pool)
	fundRepo := newPgxFundRepository(pool)

	return &portsrepo.RepositoryProvider{
		TransferRepo:     newPgxTransferRepository(pool, sequenceRepo, fundRepo),
		FundRepo:         fundRepo,
		SequenceRepo:     sequenceRepo,
		RejectionRepo:    newPgxRejectionRepository(pool),
		UserRepo:         newPgxUserRepository(pool),
		NotificationRepo: newPgxNotificationRepository(pool),
	}
}

package pgsql

import (
	"context"
	"testing"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransferRepoWithMock(t *testing.T) (pgxmock.PgxPoolIface, portsrepo.TransferRepositoryFacade) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	repo := newPgxTransferRepository(mockPool, newPgxSequenceRepository(mockPool), newPgxFundRepository(mockPool))
	return mockPool, repo
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func expectSequenceAllocation(mockPool pgxmock.PgxPoolIface, prefix string, seq int64) {
	mockPool.ExpectQuery("INSERT INTO transfer_sequences").
		WithArgs(prefix).
		WillReturnRows(pgxmock.NewRows([]string{"last_seq"}).AddRow(seq))
}

func TestCreateTransfer_RetriesOnCodeCollision(t *testing.T) {
	mockPool, repo := newTransferRepoWithMock(t)

	// First attempt allocates seq 7 but the code already exists out-of-band.
	mockPool.ExpectBegin()
	expectSequenceAllocation(mockPool, "FAR", 7)
	mockPool.ExpectExec("INSERT INTO transfers").
		WithArgs(anyArgs(15)...).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
	mockPool.ExpectRollback()

	// Retry allocates the next number and commits.
	mockPool.ExpectBegin()
	expectSequenceAllocation(mockPool, "FAR", 8)
	mockPool.ExpectExec("INSERT INTO transfers").
		WithArgs(anyArgs(15)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	transfer := &domain.TransferRequest{
		TransferID: "t-1",
		Type:       domain.TypeFAR,
		Status:     domain.StatusPending,
	}
	err := repo.CreateTransfer(context.Background(), transfer, nil)

	require.NoError(t, err)
	assert.Equal(t, "FAR-0008", transfer.Code)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCreateTransfer_GivesUpAfterRepeatedCollisions(t *testing.T) {
	mockPool, repo := newTransferRepoWithMock(t)

	for seq := int64(1); seq <= codeAllocationRetries; seq++ {
		mockPool.ExpectBegin()
		expectSequenceAllocation(mockPool, "AFR", seq)
		mockPool.ExpectExec("INSERT INTO transfers").
			WithArgs(anyArgs(15)...).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
		mockPool.ExpectRollback()
	}

	transfer := &domain.TransferRequest{
		TransferID: "t-2",
		Type:       domain.TypeAFR,
		Status:     domain.StatusPending,
	}
	err := repo.CreateTransfer(context.Background(), transfer, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestApplyDecision_ZeroRowUpdateClassification(t *testing.T) {
	tests := []struct {
		name        string
		rereadState [2]any // status, status_level after the lost race
		wantErr     error
	}{
		{
			name:        "still pending at another level means a concurrent decision won",
			rereadState: [2]any{"pending", 2},
			wantErr:     apperrors.ErrConflict,
		},
		{
			name:        "already approved means the transfer is terminal",
			rereadState: [2]any{"approved", 4},
			wantErr:     apperrors.ErrInvalidTransition,
		},
		{
			name:        "already rejected means the transfer is terminal",
			rereadState: [2]any{"rejected", -1},
			wantErr:     apperrors.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool, repo := newTransferRepoWithMock(t)

			mockPool.ExpectBegin()
			mockPool.ExpectExec("UPDATE transfers").
				WithArgs(anyArgs(6)...).
				WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			mockPool.ExpectQuery("SELECT status, status_level FROM transfers").
				WithArgs("t-3").
				WillReturnRows(pgxmock.NewRows([]string{"status", "status_level"}).
					AddRow(tt.rereadState[0], tt.rereadState[1]))
			mockPool.ExpectRollback()

			err := repo.ApplyDecision(context.Background(), portsrepo.DecisionUpdate{
				TransferID:    "t-3",
				ExpectedLevel: 1,
				NewStatus:     domain.StatusPending,
				NewLevel:      2,
				Slot:          domain.ApprovalSlot{Level: 2},
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mockPool.ExpectationsWereMet())
		})
	}
}

func TestApplyDecision_MissingTransferIsNotFound(t *testing.T) {
	mockPool, repo := newTransferRepoWithMock(t)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE transfers").
		WithArgs(anyArgs(6)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectQuery("SELECT status, status_level FROM transfers").
		WithArgs("t-4").
		WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectRollback()

	err := repo.ApplyDecision(context.Background(), portsrepo.DecisionUpdate{
		TransferID:    "t-4",
		ExpectedLevel: 0,
		NewStatus:     domain.StatusPending,
		NewLevel:      1,
		Slot:          domain.ApprovalSlot{Level: 1},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplyDecision_DuplicateApprovalSlotIsConflict(t *testing.T) {
	mockPool, repo := newTransferRepoWithMock(t)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE transfers").
		WithArgs(anyArgs(6)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("INSERT INTO transfer_approvals").
		WithArgs(anyArgs(5)...).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
	mockPool.ExpectRollback()

	err := repo.ApplyDecision(context.Background(), portsrepo.DecisionUpdate{
		TransferID:    "t-5",
		ExpectedLevel: 2,
		NewStatus:     domain.StatusPending,
		NewLevel:      3,
		Slot:          domain.ApprovalSlot{Level: 3},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestNextSequence_ReturnsReservedValue(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	seqRepo := newPgxSequenceRepository(mockPool)

	mockPool.ExpectBegin()
	expectSequenceAllocation(mockPool, "FAD", 12)

	tx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	seq, err := seqRepo.NextSequence(context.Background(), tx, "FAD")

	require.NoError(t, err)
	assert.Equal(t, int64(12), seq)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

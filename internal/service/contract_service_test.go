package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
)

func newContracts(db *memDB) *ContractService {
	return NewContractService(db.uow(), zap.NewNop())
}

func addContract(db *memDB, objectID string, status domain.ContractStatus, start time.Time, end *time.Time) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.nextID("contract")
	db.contracts[id] = domain.Contract{
		ID:        id,
		ObjectID:  objectID,
		TenantID:  "user-tenant",
		Status:    status,
		StartDate: start,
		EndDate:   end,
	}
	return id
}

func TestActivateDueFutureContract(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	contracts := newContracts(db)
	now := time.Now()

	id := addContract(db, "object-1", domain.ContractFuture, now.AddDate(0, 0, -1), nil)

	result, err := contracts.ActivateFutureContracts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Objects)
	assert.Equal(t, 1, result.Changed)
	assert.Zero(t, result.Failures)
	assert.Equal(t, domain.ContractActive, db.contracts[id].Status)
}

func TestActivationSkipsOccupiedObject(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	contracts := newContracts(db)
	now := time.Now()

	activeID := addContract(db, "object-1", domain.ContractActive, now.AddDate(-1, 0, 0), nil)
	futureID := addContract(db, "object-1", domain.ContractFuture, now.AddDate(0, 0, -1), nil)

	result, err := contracts.ActivateFutureContracts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Objects)
	assert.Zero(t, result.Changed)
	assert.Zero(t, result.Failures)

	// One active contract per object, always.
	assert.Equal(t, domain.ContractActive, db.contracts[activeID].Status)
	assert.Equal(t, domain.ContractFuture, db.contracts[futureID].Status)
}

func TestActivationPicksEarliestFuture(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	contracts := newContracts(db)
	now := time.Now()

	laterID := addContract(db, "object-1", domain.ContractFuture, now.AddDate(0, 0, -2), nil)
	earlierID := addContract(db, "object-1", domain.ContractFuture, now.AddDate(0, 0, -10), nil)

	result, err := contracts.ActivateFutureContracts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, domain.ContractActive, db.contracts[earlierID].Status)
	assert.Equal(t, domain.ContractFuture, db.contracts[laterID].Status)
}

func TestTerminationArchivesExpiredActive(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	contracts := newContracts(db)
	now := time.Now()

	end := now.AddDate(0, 0, -3)
	activeID := addContract(db, "object-1", domain.ContractActive, now.AddDate(-1, 0, 0), &end)
	futureID := addContract(db, "object-1", domain.ContractFuture, now.AddDate(0, 0, -1), nil)

	result, err := contracts.TerminateContracts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, domain.ContractArchived, db.contracts[activeID].Status)

	// Termination never activates the successor on its own.
	assert.Equal(t, domain.ContractFuture, db.contracts[futureID].Status)

	// The next activation run picks it up.
	activation, err := contracts.ActivateFutureContracts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, activation.Changed)
	assert.Equal(t, domain.ContractActive, db.contracts[futureID].Status)
}

func TestTerminationLeavesOpenEndedContracts(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	contracts := newContracts(db)
	now := time.Now()

	openEndedID := addContract(db, "object-1", domain.ContractActive, now.AddDate(-1, 0, 0), nil)
	futureEnd := now.AddDate(0, 1, 0)
	runningID := addContract(db, "object-2", domain.ContractActive, now.AddDate(-1, 0, 0), &futureEnd)

	result, err := contracts.TerminateContracts(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, result.Objects)
	assert.Zero(t, result.Changed)
	assert.Equal(t, domain.ContractActive, db.contracts[openEndedID].Status)
	assert.Equal(t, domain.ContractActive, db.contracts[runningID].Status)
}

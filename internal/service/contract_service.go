package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/repository"
)

// ContractRunResult summarizes one contract lifecycle batch.
type ContractRunResult struct {
	Objects  int
	Changed  int
	Failures int
}

// ContractService runs the contract lifecycle jobs. Each object is processed
// in its own unit of work so a failure on one object never leaves another
// half-activated, and steady state keeps at most one active contract per
// object.
type ContractService struct {
	uow    repository.UnitOfWork
	logger *zap.Logger
}

// NewContractService constructs the service.
func NewContractService(uow repository.UnitOfWork, logger *zap.Logger) *ContractService {
	return &ContractService{uow: uow, logger: logger}
}

// ActivateFutureContracts activates, per object, the next future contract
// whose start date has passed, provided no contract is currently active.
func (c *ContractService) ActivateFutureContracts(ctx context.Context, now time.Time) (ContractRunResult, error) {
	var objects []string
	err := c.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		objects, err = s.Contracts.ObjectsWithDueFuture(ctx, now)
		return err
	})
	if err != nil {
		return ContractRunResult{}, err
	}

	result := ContractRunResult{Objects: len(objects)}
	for _, objectID := range objects {
		if err := c.activateObject(ctx, objectID, now); err != nil {
			if errors.Is(err, domain.ErrNoActiveContract) {
				// An active contract still occupies the object; the next
				// terminate run will free it.
				continue
			}
			result.Failures++
			c.logger.Error("contract activation failed",
				zap.String("object_id", objectID), zap.Error(err))
			continue
		}
		result.Changed++
	}
	return result, nil
}

func (c *ContractService) activateObject(ctx context.Context, objectID string, now time.Time) error {
	return c.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		if _, err := s.Contracts.ActiveForObject(ctx, objectID); err == nil {
			return fmt.Errorf("%w: object %s already has an active contract", domain.ErrNoActiveContract, objectID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		next, err := s.Contracts.NextFutureForObject(ctx, objectID)
		if err != nil {
			return err
		}
		if !next.DueForActivation(now) {
			return nil
		}
		next.Status = domain.ContractActive
		return s.Contracts.Update(ctx, next)
	})
}

// TerminateContracts archives, per object, the active contract whose end
// date has passed. Activation of a queued successor is deliberately left to
// ActivateFutureContracts so the two jobs stay independently idempotent.
func (c *ContractService) TerminateContracts(ctx context.Context, now time.Time) (ContractRunResult, error) {
	var objects []string
	err := c.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		objects, err = s.Contracts.ObjectsWithExpiredActive(ctx, now)
		return err
	})
	if err != nil {
		return ContractRunResult{}, err
	}

	result := ContractRunResult{Objects: len(objects)}
	for _, objectID := range objects {
		if err := c.terminateObject(ctx, objectID, now); err != nil {
			result.Failures++
			c.logger.Error("contract termination failed",
				zap.String("object_id", objectID), zap.Error(err))
			continue
		}
		result.Changed++
	}
	return result, nil
}

func (c *ContractService) terminateObject(ctx context.Context, objectID string, now time.Time) error {
	return c.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		active, err := s.Contracts.ActiveForObject(ctx, objectID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if !active.DueForTermination(now) {
			return nil
		}
		active.Status = domain.ContractArchived
		return s.Contracts.Update(ctx, active)
	})
}

package service

import (
	"context"
	"fmt"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
)

// Environmental equivalence factors per floor climbed.
const (
	co2PerFloorKg   = 0.027
	kgCO2PerTree    = 25.0
	kgCO2PerKgWaste = 2.87
)

// ImpactFromFloors derives environmental-equivalent statistics from a floors
// climbed count. Pure function, no stored derived state.
func ImpactFromFloors(floors int) domain.ImpactStats {
	co2 := float64(floors) * co2PerFloorKg
	return domain.ImpactStats{
		FloorsClimbed: floors,
		CO2SavedKg:    co2,
		Trees:         co2 / kgCO2PerTree,
		WasteKg:       co2 / kgCO2PerKgWaste,
	}
}

// ImpactStore supplies floors-climbed sums from the scan ledger.
type ImpactStore interface {
	FloorsClimbed(ctx context.Context, userID string) (int, error)
	FloorsClimbedGlobal(ctx context.Context) (int, error)
}

type ImpactService struct {
	store ImpactStore
}

func NewImpactService(store ImpactStore) *ImpactService {
	return &ImpactService{store: store}
}

func (s *ImpactService) ForUser(ctx context.Context, userID string) (domain.ImpactStats, error) {
	floors, err := s.store.FloorsClimbed(ctx, userID)
	if err != nil {
		return domain.ImpactStats{}, fmt.Errorf("storage: %w", err)
	}
	return ImpactFromFloors(floors), nil
}

func (s *ImpactService) Global(ctx context.Context) (domain.ImpactStats, error) {
	floors, err := s.store.FloorsClimbedGlobal(ctx)
	if err != nil {
		return domain.ImpactStats{}, fmt.Errorf("storage: %w", err)
	}
	return ImpactFromFloors(floors), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/repository"
)

const leaderboardTopSize = 3

// LeaderboardStore is the progression persistence the ranker needs.
type LeaderboardStore interface {
	AllRecords(ctx context.Context) ([]repository.RankedRecord, error)
	SaveRanks(ctx context.Context, userIDs []string, ranks []int) error
	Get(ctx context.Context, userID string) (*domain.ProgressionRecord, error)
	Top(ctx context.Context, limit int) ([]domain.ProgressionRecord, error)
	Neighbors(ctx context.Context, rank int) (above, below *domain.ProgressionRecord, err error)
}

// LeaderboardView is the relative-progress snapshot rendered for one user.
type LeaderboardView struct {
	Me    *domain.ProgressionRecord  `json:"me,omitempty"`
	Above *domain.ProgressionRecord  `json:"above,omitempty"`
	Below *domain.ProgressionRecord  `json:"below,omitempty"`
	Top   []domain.ProgressionRecord `json:"top"`
	Total int                        `json:"total"`
}

type LeaderboardService struct {
	store LeaderboardStore
}

func NewLeaderboardService(store LeaderboardStore) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// Recompute loads all progression records, orders them by points descending
// and persists rank 1..N. Ties break by earliest-registered user first, then
// user id, so re-running on unchanged data always yields the same ranks.
func (s *LeaderboardService) Recompute(ctx context.Context) error {
	records, err := s.store.AllRecords(ctx)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Points != records[j].Points {
			return records[i].Points > records[j].Points
		}
		if !records[i].RegisteredAt.Equal(records[j].RegisteredAt) {
			return records[i].RegisteredAt.Before(records[j].RegisteredAt)
		}
		return records[i].UserID < records[j].UserID
	})

	userIDs := make([]string, len(records))
	ranks := make([]int, len(records))
	for i, rec := range records {
		userIDs[i] = rec.UserID
		ranks[i] = i + 1
	}

	if err := s.store.SaveRanks(ctx, userIDs, ranks); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// Query recomputes ranks and returns the user's rank, the neighbors directly
// above and below, and the top of the board. A user with no progression (or
// an empty board) gets an empty view instead of an error.
func (s *LeaderboardService) Query(ctx context.Context, userID string) (*LeaderboardView, error) {
	if err := s.Recompute(ctx); err != nil {
		return nil, err
	}

	view := &LeaderboardView{Top: []domain.ProgressionRecord{}}

	records, err := s.store.AllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	view.Total = len(records)
	if len(records) == 0 {
		return view, nil
	}

	top, err := s.store.Top(ctx, leaderboardTopSize)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	view.Top = top

	me, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return view, nil
		}
		return nil, fmt.Errorf("storage: %w", err)
	}
	view.Me = me

	above, below, err := s.store.Neighbors(ctx, me.Rank)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	view.Above = above
	view.Below = below

	return view, nil
}

// TopList recomputes and returns the first limit entries of the board.
func (s *LeaderboardService) TopList(ctx context.Context, limit int) ([]domain.ProgressionRecord, error) {
	if err := s.Recompute(ctx); err != nil {
		return nil, err
	}
	top, err := s.store.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if top == nil {
		top = []domain.ProgressionRecord{}
	}
	return top, nil
}

package handlers

import (
	"github.com/jasmnyeh/staircase-fairy/internal/repository"
	"github.com/jasmnyeh/staircase-fairy/internal/service"
)

type Handler struct {
	Scan        *service.ScanService
	Leaderboard *service.LeaderboardService
	Impact      *service.ImpactService
	Users       *repository.UserRepository
	Progression *repository.ProgressionRepository
	ScanLog     *repository.ScanRepository
}

func NewHandler(
	scan *service.ScanService,
	leaderboard *service.LeaderboardService,
	impact *service.ImpactService,
	users *repository.UserRepository,
	progression *repository.ProgressionRepository,
	scanLog *repository.ScanRepository,
) *Handler {
	return &Handler{
		Scan:        scan,
		Leaderboard: leaderboard,
		Impact:      impact,
		Users:       users,
		Progression: progression,
		ScanLog:     scanLog,
	}
}

// getUserID extracts the authenticated user id set by the JWT middleware.
func getUserID(c interface{ Get(any) (any, bool) }) (string, bool) {
	val, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

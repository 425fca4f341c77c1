package duel

import (
	"github.com/google/uuid"
)

// ProgressState is the shared document for crossword/word-search duels: both
// players race through the same puzzle instance and report percent complete.
type ProgressState struct {
	PuzzleID string         `json:"puzzle_id"`
	Progress map[string]int `json:"progress"`
	WinnerID *uuid.UUID     `json:"winner_id,omitempty"`
}

// NewProgressState builds a zeroed progress map for the participants.
func NewProgressState(puzzleID string, userIDs ...uuid.UUID) *ProgressState {
	progress := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		progress[id.String()] = 0
	}
	return &ProgressState{PuzzleID: puzzleID, Progress: progress}
}

// ReportProgress records a player's percent complete, clamped to [0,100].
// Progress never moves backwards; a stale or duplicate report is a no-op.
func (s *ProgressState) ReportProgress(userID uuid.UUID, percent int) bool {
	if s.WinnerID != nil {
		return false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	key := userID.String()
	if _, ok := s.Progress[key]; !ok {
		return false // not a participant
	}
	if percent <= s.Progress[key] {
		return false
	}
	s.Progress[key] = percent
	return true
}

// ClaimVictory marks the claimant as winner. The first claim to land wins the
// race; a claim requires 100% reported progress and no-ops once a winner is
// set.
func (s *ProgressState) ClaimVictory(userID uuid.UUID) bool {
	if s.WinnerID != nil {
		return false
	}
	if s.Progress[userID.String()] < 100 {
		return false
	}
	winner := userID
	s.WinnerID = &winner
	return true
}

package models

import "time"

// Match statuses. A completed match is terminal: no further bets, no
// re-settlement.
const (
	MatchScheduled = "scheduled"
	MatchLive      = "live"
	MatchCompleted = "completed"
)

// Bet statuses. Amount, odds and potential are fixed at placement; only
// the status moves, and only through settlement.
const (
	BetPending = "pending"
	BetWon     = "won"
	BetLost    = "lost"
)

// Match is globally visible: it has no owner, every identity may read it,
// and only settlement mutates it.
type Match struct {
	ID        int       `json:"id"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	Sport     string    `json:"sport"`
	League    string    `json:"league"`
	StartTime time.Time `json:"startTime"`
	HomeOdds  float64   `json:"homeOdds"`
	AwayOdds  float64   `json:"awayOdds"`
	DrawOdds  *float64  `json:"drawOdds,omitempty"`
	Status    string    `json:"status"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
}

type Bet struct {
	ID          int       `json:"id"`
	Reference   string    `json:"reference"`
	UserID      int       `json:"-"`
	MatchID     int       `json:"matchId"`
	TeamBetOn   string    `json:"teamBetOn"`
	Odds        float64   `json:"odds"`
	Amount      float64   `json:"amount"`
	Potential   float64   `json:"potential"`
	Status      string    `json:"status"`
	DateCreated time.Time `json:"dateCreated"`
}

type MatchWithBets struct {
	Match
	UserBets []Bet `json:"userBets,omitempty"`
}

type BettingSummary struct {
	TotalBets    int     `json:"totalBets"`
	PendingBets  int     `json:"pendingBets"`
	TotalWagered float64 `json:"totalWagered"`
	TotalWon     float64 `json:"totalWon"`
	NetProfit    float64 `json:"netProfit"`
	WinRate      float64 `json:"winRate"`
}

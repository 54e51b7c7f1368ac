package services

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marketpulse/backend/internal/ledger"
	"github.com/marketpulse/backend/internal/middleware"
	"github.com/marketpulse/backend/internal/models"
)

type BettingService struct {
	db        *sql.DB
	ledger    *ledger.Service
	validator *ValidationHelper
}

type PlaceBetRequest struct {
	MatchID   int     `json:"matchId" validate:"required"`
	TeamBetOn string  `json:"teamBetOn" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Odds      float64 `json:"odds" validate:"required,gt=0"`
}

type SettleMatchRequest struct {
	HomeScore *int `json:"homeScore" validate:"required,gte=0"`
	AwayScore *int `json:"awayScore" validate:"required,gte=0"`
}

func NewBettingService(db *sql.DB, ledgerSvc *ledger.Service) *BettingService {
	return &BettingService{db: db, ledger: ledgerSvc, validator: NewValidationHelper()}
}

// ListMatches returns all matches with the caller's bets attached
// @Summary List matches
// @Description All matches, each carrying the authenticated user's own bets
// @Tags betting
// @Produce json
// @Success 200 {array} models.MatchWithBets
// @Router /matches [get]
func (s *BettingService) ListMatches(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	rows, err := s.db.Query(`
		SELECT id, home_team, away_team, sport, league, start_time,
		       home_odds, away_odds, draw_odds, status, home_score, away_score
		FROM matches
		ORDER BY start_time`)
	if err != nil {
		log.Printf("[BETTING] Failed to list matches: %v", err)
		SendErrorResponse(w, "Failed to fetch matches", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	matches := []models.MatchWithBets{}
	index := map[int]int{}
	for rows.Next() {
		var m models.Match
		err := rows.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Sport, &m.League, &m.StartTime,
			&m.HomeOdds, &m.AwayOdds, &m.DrawOdds, &m.Status, &m.HomeScore, &m.AwayScore)
		if err != nil {
			SendErrorResponse(w, "Failed to fetch matches", http.StatusInternalServerError, nil)
			return
		}
		index[m.ID] = len(matches)
		matches = append(matches, models.MatchWithBets{Match: m})
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch matches", http.StatusInternalServerError, nil)
		return
	}

	bets, err := s.userBets(user.ID)
	if err != nil {
		log.Printf("[BETTING] Failed to load bets for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch matches", http.StatusInternalServerError, nil)
		return
	}
	for _, b := range bets {
		if i, ok := index[b.MatchID]; ok {
			matches[i].UserBets = append(matches[i].UserBets, b)
		}
	}

	SendJSON(w, http.StatusOK, matches)
}

// PlaceBet places a stake on a match outcome
// @Summary Place bet
// @Description Debit the stake and record a pending bet atomically
// @Tags betting
// @Accept json
// @Produce json
// @Param request body PlaceBetRequest true "Bet"
// @Success 201 {object} map[string]any "Bet and new balance"
// @Failure 400 {object} ErrorResponse "Insufficient balance or match unavailable"
// @Router /bets [post]
func (s *BettingService) PlaceBet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req PlaceBetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	bet, newBalance, err := s.ledger.PlaceBet(user.ID, req.MatchID, req.TeamBetOn, req.Amount, req.Odds)
	switch {
	case errors.Is(err, ledger.ErrMatchUnavailable):
		SendErrorResponse(w, "Match is not available for betting", http.StatusBadRequest, nil)
		return
	case errors.Is(err, ledger.ErrInsufficientFunds):
		SendErrorResponse(w, "Insufficient balance", http.StatusBadRequest, nil)
		return
	case err != nil:
		log.Printf("[BETTING] Failed to place bet for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to place bet", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[BETTING] Bet %s placed by user %d: %.2f @ %.2f on match %d",
		bet.Reference, user.ID, bet.Amount, bet.Odds, bet.MatchID)
	SendJSON(w, http.StatusCreated, map[string]any{
		"message":    "Bet placed successfully",
		"bet":        bet,
		"newBalance": newBalance,
	})
}

// ListBets returns the caller's bets, newest first
// @Summary List bets
// @Tags betting
// @Produce json
// @Success 200 {array} models.Bet
// @Router /bets [get]
func (s *BettingService) ListBets(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	bets, err := s.userBets(user.ID)
	if err != nil {
		log.Printf("[BETTING] Failed to list bets for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch bets", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, http.StatusOK, bets)
}

// BettingSummary aggregates the caller's betting history
// @Summary Betting summary
// @Description Totals, net profit and win rate over the caller's bets
// @Tags betting
// @Produce json
// @Success 200 {object} models.BettingSummary
// @Router /bettingSummary [get]
func (s *BettingService) BettingSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var summary models.BettingSummary
	var wonBets int
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'won'),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(potential) FILTER (WHERE status = 'won'), 0)
		FROM bets WHERE user_id = $1`, user.ID).
		Scan(&summary.TotalBets, &summary.PendingBets, &wonBets,
			&summary.TotalWagered, &summary.TotalWon)
	if err != nil {
		log.Printf("[BETTING] Summary failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch betting summary", http.StatusInternalServerError, nil)
		return
	}

	summary.NetProfit = summary.TotalWon - summary.TotalWagered
	if summary.TotalBets > 0 {
		summary.WinRate = float64(wonBets) / float64(summary.TotalBets) * 100
	}

	SendJSON(w, http.StatusOK, summary)
}

// SettleMatch records the final score and resolves pending bets
// @Summary Settle match
// @Description Admin only. Completes the match and pays out winning bets
// @Tags betting
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body SettleMatchRequest true "Final score"
// @Success 200 {object} map[string]any "Settlement result"
// @Failure 400 {object} ErrorResponse "Match unavailable"
// @Router /matches/{id}/settle [post]
func (s *BettingService) SettleMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Match not found", http.StatusNotFound, nil)
		return
	}

	var req SettleMatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	resolved, err := s.ledger.SettleMatch(matchID, *req.HomeScore, *req.AwayScore)
	switch {
	case errors.Is(err, ledger.ErrMatchUnavailable):
		SendErrorResponse(w, "Match is not available for settlement", http.StatusBadRequest, nil)
		return
	case err != nil:
		log.Printf("[BETTING] Failed to settle match %d: %v", matchID, err)
		SendErrorResponse(w, "Failed to settle match", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[BETTING] Match %d settled %d-%d, %d bets resolved",
		matchID, *req.HomeScore, *req.AwayScore, resolved)
	SendJSON(w, http.StatusOK, map[string]any{
		"message":      "Match settled successfully",
		"betsResolved": resolved,
	})
}

func (s *BettingService) userBets(userID int) ([]models.Bet, error) {
	rows, err := s.db.Query(`
		SELECT id, reference, user_id, match_id, team_bet_on, odds, amount, potential, status, date_created
		FROM bets
		WHERE user_id = $1
		ORDER BY date_created DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := []models.Bet{}
	for rows.Next() {
		var b models.Bet
		err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.MatchID, &b.TeamBetOn,
			&b.Odds, &b.Amount, &b.Potential, &b.Status, &b.DateCreated)
		if err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

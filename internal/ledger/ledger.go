package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketpulse/backend/internal/models"
)

var (
	// ErrInsufficientFunds means the stake exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrMatchUnavailable means the target match does not exist or has
	// already completed.
	ErrMatchUnavailable = errors.New("match unavailable")
	// ErrInvalidQuantity rejects a non-positive purchase quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInvalidPrice rejects a non-positive purchase price.
	ErrInvalidPrice = errors.New("price must be positive")
)

// Service applies money-like state transitions. Every mutation runs in a
// single database transaction with the affected rows locked, so two
// requests against the same balance or the same stock lot serialize
// instead of both reading the pre-update value.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// PlaceBet debits the stake from the user's balance and records a pending
// bet with potential = amount * odds, as one atomic unit. The potential is
// fixed at the odds passed in; later odds movement never changes it.
func (s *Service) PlaceBet(userID, matchID int, team string, amount, odds float64) (*models.Bet, float64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var balance float64
	err = tx.QueryRow(`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return nil, 0, fmt.Errorf("lock balance: %w", err)
	}

	var status string
	err = tx.QueryRow(`SELECT status FROM matches WHERE id = $1`, matchID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, 0, ErrMatchUnavailable
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load match: %w", err)
	}
	if status == models.MatchCompleted {
		return nil, 0, ErrMatchUnavailable
	}

	if amount > balance {
		return nil, 0, ErrInsufficientFunds
	}
	newBalance := balance - amount

	if _, err := tx.Exec(`UPDATE users SET balance = $1 WHERE id = $2`, newBalance, userID); err != nil {
		return nil, 0, fmt.Errorf("debit balance: %w", err)
	}

	bet := &models.Bet{
		Reference: uuid.NewString(),
		UserID:    userID,
		MatchID:   matchID,
		TeamBetOn: team,
		Odds:      odds,
		Amount:    amount,
		Potential: amount * odds,
		Status:    models.BetPending,
	}
	err = tx.QueryRow(`
		INSERT INTO bets (reference, user_id, match_id, team_bet_on, odds, amount, potential, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, date_created`,
		bet.Reference, bet.UserID, bet.MatchID, bet.TeamBetOn, bet.Odds, bet.Amount, bet.Potential, bet.Status).
		Scan(&bet.ID, &bet.DateCreated)
	if err != nil {
		return nil, 0, fmt.Errorf("insert bet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return bet, newBalance, nil
}

// MergePurchase folds a purchase into the owner's single lot for the
// symbol. A first purchase creates the lot; repeat purchases combine via
// the volume-weighted average, computed in decimal so no precision is lost
// before display.
func (s *Service) MergePurchase(userID int, symbol string, quantity int64, price decimal.Decimal) (*models.StockLot, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lot := &models.StockLot{UserID: userID, Symbol: symbol}

	var (
		oldQuantity int64
		oldCostStr  string
	)
	err = tx.QueryRow(`
		SELECT id, quantity, average_cost FROM stocks
		WHERE user_id = $1 AND symbol = $2
		FOR UPDATE`, userID, symbol).Scan(&lot.ID, &oldQuantity, &oldCostStr)

	switch {
	case err == sql.ErrNoRows:
		lot.Quantity = quantity
		lot.AverageCost = price
		err = tx.QueryRow(`
			INSERT INTO stocks (user_id, symbol, quantity, average_cost)
			VALUES ($1, $2, $3, $4)
			RETURNING id, updated_at`,
			userID, symbol, quantity, price.String()).Scan(&lot.ID, &lot.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("create lot: %w", err)
		}

	case err != nil:
		return nil, fmt.Errorf("lock lot: %w", err)

	default:
		oldCost, err := decimal.NewFromString(oldCostStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored cost %q: %w", oldCostStr, err)
		}

		oldQty := decimal.NewFromInt(oldQuantity)
		newQty := decimal.NewFromInt(oldQuantity + quantity)
		incoming := decimal.NewFromInt(quantity)

		// (oldQty*oldCost + qty*price) / (oldQty + qty)
		lot.Quantity = oldQuantity + quantity
		lot.AverageCost = oldQty.Mul(oldCost).Add(incoming.Mul(price)).Div(newQty)

		err = tx.QueryRow(`
			UPDATE stocks SET quantity = $1, average_cost = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING updated_at`,
			lot.Quantity, lot.AverageCost.String(), lot.ID).Scan(&lot.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("merge lot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return lot, nil
}

// SettleMatch completes a match and resolves its pending bets: winners are
// credited their fixed potential, losers are closed out. Re-settling a
// completed match is refused. Returns the number of bets resolved.
func (s *Service) SettleMatch(matchID, homeScore, awayScore int) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var homeTeam, awayTeam, status string
	err = tx.QueryRow(`
		SELECT home_team, away_team, status FROM matches
		WHERE id = $1
		FOR UPDATE`, matchID).Scan(&homeTeam, &awayTeam, &status)
	if err == sql.ErrNoRows {
		return 0, ErrMatchUnavailable
	}
	if err != nil {
		return 0, fmt.Errorf("lock match: %w", err)
	}
	if status == models.MatchCompleted {
		return 0, ErrMatchUnavailable
	}

	_, err = tx.Exec(`
		UPDATE matches SET status = $1, home_score = $2, away_score = $3
		WHERE id = $4`,
		models.MatchCompleted, homeScore, awayScore, matchID)
	if err != nil {
		return 0, fmt.Errorf("complete match: %w", err)
	}

	winner := "draw"
	if homeScore > awayScore {
		winner = homeTeam
	} else if awayScore > homeScore {
		winner = awayTeam
	}

	rows, err := tx.Query(`
		SELECT id, user_id, team_bet_on, potential FROM bets
		WHERE match_id = $1 AND status = $2
		FOR UPDATE`, matchID, models.BetPending)
	if err != nil {
		return 0, fmt.Errorf("load pending bets: %w", err)
	}

	type pendingBet struct {
		id, userID int
		team       string
		potential  float64
	}
	var pending []pendingBet
	for rows.Next() {
		var b pendingBet
		if err := rows.Scan(&b.id, &b.userID, &b.team, &b.potential); err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, b := range pending {
		result := models.BetLost
		if b.team == winner {
			result = models.BetWon
			if _, err := tx.Exec(`UPDATE users SET balance = balance + $1 WHERE id = $2`, b.potential, b.userID); err != nil {
				return 0, fmt.Errorf("credit winnings: %w", err)
			}
		}
		if _, err := tx.Exec(`UPDATE bets SET status = $1 WHERE id = $2`, result, b.id); err != nil {
			return 0, fmt.Errorf("resolve bet: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(pending), nil
}

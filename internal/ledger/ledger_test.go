package ledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/marketpulse/backend/internal/models"
)

func TestService_PlaceBet(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	t.Run("successful bet debits stake and fixes potential", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(1000.0))
		mock.ExpectQuery("SELECT status FROM matches WHERE id = \\$1").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.MatchScheduled))
		mock.ExpectExec("UPDATE users SET balance = \\$1 WHERE id = \\$2").
			WithArgs(400.0, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO bets").
			WithArgs(sqlmock.AnyArg(), 1, 3, "Lions", 2.0, 600.0, 1200.0, models.BetPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "date_created"}).AddRow(11, time.Now()))
		mock.ExpectCommit()

		bet, newBalance, err := service.PlaceBet(1, 3, "Lions", 600, 2.0)
		assert.NoError(t, err)
		assert.Equal(t, 400.0, newBalance)
		assert.Equal(t, 1200.0, bet.Potential)
		assert.Equal(t, models.BetPending, bet.Status)
		assert.NotEmpty(t, bet.Reference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stake above balance is rejected", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(400.0))
		mock.ExpectQuery("SELECT status FROM matches WHERE id = \\$1").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.MatchScheduled))
		mock.ExpectRollback()

		_, _, err := service.PlaceBet(1, 3, "Lions", 500, 2.0)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stake equal to balance is allowed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(400.0))
		mock.ExpectQuery("SELECT status FROM matches WHERE id = \\$1").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.MatchLive))
		mock.ExpectExec("UPDATE users SET balance = \\$1 WHERE id = \\$2").
			WithArgs(0.0, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO bets").
			WithArgs(sqlmock.AnyArg(), 1, 3, "Lions", 1.5, 400.0, 600.0, models.BetPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "date_created"}).AddRow(12, time.Now()))
		mock.ExpectCommit()

		_, newBalance, err := service.PlaceBet(1, 3, "Lions", 400, 1.5)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, newBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("completed match refuses bets", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(1000.0))
		mock.ExpectQuery("SELECT status FROM matches WHERE id = \\$1").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.MatchCompleted))
		mock.ExpectRollback()

		_, _, err := service.PlaceBet(1, 3, "Lions", 100, 2.0)
		assert.ErrorIs(t, err, ErrMatchUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing match refuses bets", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(1000.0))
		mock.ExpectQuery("SELECT status FROM matches WHERE id = \\$1").
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := service.PlaceBet(1, 99, "Lions", 100, 2.0)
		assert.ErrorIs(t, err, ErrMatchUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_MergePurchase(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	t.Run("first purchase creates the lot", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, quantity, average_cost FROM stocks").
			WithArgs(1, "ACME").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO stocks").
			WithArgs(1, "ACME", int64(10), "100").
			WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(5, time.Now()))
		mock.ExpectCommit()

		lot, err := service.MergePurchase(1, "ACME", 10, decimal.NewFromInt(100))
		assert.NoError(t, err)
		assert.Equal(t, int64(10), lot.Quantity)
		assert.True(t, lot.AverageCost.Equal(decimal.NewFromInt(100)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat purchase merges into weighted average", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, quantity, average_cost FROM stocks").
			WithArgs(1, "ACME").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "average_cost"}).
				AddRow(5, int64(10), "100"))
		mock.ExpectQuery("UPDATE stocks SET quantity = \\$1, average_cost = \\$2").
			WithArgs(int64(20), "150", 5).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		lot, err := service.MergePurchase(1, "ACME", 10, decimal.NewFromInt(200))
		assert.NoError(t, err)
		assert.Equal(t, int64(20), lot.Quantity)
		assert.True(t, lot.AverageCost.Equal(decimal.NewFromInt(150)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("average keeps full precision", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, quantity, average_cost FROM stocks").
			WithArgs(1, "GLBX").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "average_cost"}).
				AddRow(6, int64(3), "10"))
		mock.ExpectQuery("UPDATE stocks SET quantity = \\$1, average_cost = \\$2").
			WithArgs(int64(4), sqlmock.AnyArg(), 6).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		// (3*10 + 1*11) / 4 = 10.25
		lot, err := service.MergePurchase(1, "GLBX", 1, decimal.NewFromInt(11))
		assert.NoError(t, err)
		assert.True(t, lot.AverageCost.Equal(decimal.RequireFromString("10.25")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive quantity rejected before any query", func(t *testing.T) {
		_, err := service.MergePurchase(1, "ACME", 0, decimal.NewFromInt(100))
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = service.MergePurchase(1, "ACME", -5, decimal.NewFromInt(100))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("non-positive price rejected before any query", func(t *testing.T) {
		_, err := service.MergePurchase(1, "ACME", 10, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidPrice)

		_, err = service.MergePurchase(1, "ACME", 10, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestService_SettleMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewService(db)

	t.Run("winners credited and losers closed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT home_team, away_team, status FROM matches").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"home_team", "away_team", "status"}).
				AddRow("Lions", "Tigers", models.MatchLive))
		mock.ExpectExec("UPDATE matches SET status = \\$1, home_score = \\$2, away_score = \\$3").
			WithArgs(models.MatchCompleted, 2, 1, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT id, user_id, team_bet_on, potential FROM bets").
			WithArgs(3, models.BetPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "team_bet_on", "potential"}).
				AddRow(11, 1, "Lions", 1200.0).
				AddRow(12, 2, "Tigers", 300.0))
		mock.ExpectExec("UPDATE users SET balance = balance \\+ \\$1 WHERE id = \\$2").
			WithArgs(1200.0, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE bets SET status = \\$1 WHERE id = \\$2").
			WithArgs(models.BetWon, 11).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE bets SET status = \\$1 WHERE id = \\$2").
			WithArgs(models.BetLost, 12).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resolved, err := service.SettleMatch(3, 2, 1)
		assert.NoError(t, err)
		assert.Equal(t, 2, resolved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("draw pays only draw bets", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT home_team, away_team, status FROM matches").
			WithArgs(4).
			WillReturnRows(sqlmock.NewRows([]string{"home_team", "away_team", "status"}).
				AddRow("Lions", "Tigers", models.MatchScheduled))
		mock.ExpectExec("UPDATE matches SET status = \\$1, home_score = \\$2, away_score = \\$3").
			WithArgs(models.MatchCompleted, 1, 1, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT id, user_id, team_bet_on, potential FROM bets").
			WithArgs(4, models.BetPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "team_bet_on", "potential"}).
				AddRow(13, 1, "Lions", 500.0).
				AddRow(14, 2, "draw", 800.0))
		mock.ExpectExec("UPDATE bets SET status = \\$1 WHERE id = \\$2").
			WithArgs(models.BetLost, 13).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE users SET balance = balance \\+ \\$1 WHERE id = \\$2").
			WithArgs(800.0, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE bets SET status = \\$1 WHERE id = \\$2").
			WithArgs(models.BetWon, 14).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resolved, err := service.SettleMatch(4, 1, 1)
		assert.NoError(t, err)
		assert.Equal(t, 2, resolved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-settlement refused", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT home_team, away_team, status FROM matches").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"home_team", "away_team", "status"}).
				AddRow("Lions", "Tigers", models.MatchCompleted))
		mock.ExpectRollback()

		_, err := service.SettleMatch(3, 2, 1)
		assert.ErrorIs(t, err, ErrMatchUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing match refused", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT home_team, away_team, status FROM matches").
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.SettleMatch(99, 2, 1)
		assert.ErrorIs(t, err, ErrMatchUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

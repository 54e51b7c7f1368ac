package auth

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/marketpulse/backend/internal/models"
)

const lookupQuery = "SELECT id, username, email, is_admin, balance"

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "is_admin", "balance", "company_name", "industry", "created_at",
	})
}

func TestTokenService_Authenticate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewTokenService(db, "test-secret", time.Hour)
	user := &models.User{ID: 7, Username: "jdoe", IsAdmin: false}

	t.Run("issue and authenticate round trip", func(t *testing.T) {
		token, err := service.Issue(user)
		assert.NoError(t, err)

		mock.ExpectQuery(lookupQuery).
			WithArgs(7).
			WillReturnRows(userRows().
				AddRow(7, "jdoe", "jdoe@example.com", false, 850.0, "Acme", "SaaS", time.Now()))

		resolved, err := service.Authenticate("Bearer " + token)
		assert.NoError(t, err)
		assert.Equal(t, 7, resolved.ID)
		assert.Equal(t, "jdoe", resolved.Username)
		// The snapshot reflects the stored row, not the claims.
		assert.Equal(t, 850.0, resolved.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := service.Authenticate("")
		assert.ErrorIs(t, err, ErrMalformedCredential)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		token, _ := service.Issue(user)
		_, err := service.Authenticate("Token " + token)
		assert.ErrorIs(t, err, ErrMalformedCredential)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.Authenticate("Bearer not.a.token")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenService(db, "test-secret", -time.Hour)
		token, err := expired.Issue(user)
		assert.NoError(t, err)

		_, err = service.Authenticate("Bearer " + token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("token signed with different secret", func(t *testing.T) {
		forger := NewTokenService(db, "other-secret", time.Hour)
		token, err := forger.Issue(user)
		assert.NoError(t, err)

		_, err = service.Authenticate("Bearer " + token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("deleted account behind valid token", func(t *testing.T) {
		token, err := service.Issue(user)
		assert.NoError(t, err)

		mock.ExpectQuery(lookupQuery).
			WithArgs(7).
			WillReturnError(sql.ErrNoRows)

		_, err = service.Authenticate("Bearer " + token)
		assert.ErrorIs(t, err, ErrUnknownSubject)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

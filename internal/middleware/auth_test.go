package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"

	"github.com/marketpulse/backend/internal/auth"
	"github.com/marketpulse/backend/internal/models"
)

func TestRequireAuth(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	tokens := auth.NewTokenService(db, "test-secret", time.Hour)
	user := &models.User{ID: 7, Username: "jdoe"}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, ok := UserFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, 7, resolved.ID)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes through with identity attached", func(t *testing.T) {
		token, err := tokens.Issue(user)
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, username, email, is_admin, balance").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "username", "email", "is_admin", "balance", "company_name", "industry", "created_at",
			}).AddRow(7, "jdoe", "jdoe@example.com", false, 1000.0, "", "", time.Now()))

		req := httptest.NewRequest("GET", "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		RequireAuth(tokens, nil)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all failure modes return the same body", func(t *testing.T) {
		headers := []string{
			"",
			"Bearer",
			"Token abc",
			"Bearer not.a.token",
		}
		for _, header := range headers {
			req := httptest.NewRequest("GET", "/api/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			RequireAuth(tokens, nil)(next).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid or expired token"}`, rec.Body.String())
		}
	})

	t.Run("blacklisted token rejected without touching the database", func(t *testing.T) {
		token, err := tokens.Issue(user)
		assert.NoError(t, err)

		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet("blacklist:" + token).SetVal("1")

		req := httptest.NewRequest("GET", "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		RequireAuth(tokens, rdb)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid or expired token"}`, rec.Body.String())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/matches/1/settle", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 1, IsAdmin: true}))
		rec := httptest.NewRecorder()

		RequireAdmin(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/matches/1/settle", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 2}))
		rec := httptest.NewRecorder()

		RequireAdmin(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing identity unauthorized", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/matches/1/settle", nil)
		rec := httptest.NewRecorder()

		RequireAdmin(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marketpulse/backend/internal/models"
)

var (
	// ErrMalformedCredential covers a missing header or one that does not
	// split into exactly "Bearer <token>".
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidCredential covers signature mismatch, unsupported signing
	// method and expiry.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnknownSubject means the token verified but its subject no longer
	// resolves to a stored identity.
	ErrUnknownSubject = errors.New("unknown subject")
)

// TokenService issues and verifies bearer credentials. The signing secret
// and lifetime are fixed at construction; issuance is stateless, while
// authentication always re-resolves the subject against the users table so
// callers see the live balance and role rather than a stale claim.
type TokenService struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
}

func NewTokenService(db *sql.DB, secret string, ttl time.Duration) *TokenService {
	return &TokenService{db: db, secret: []byte(secret), ttl: ttl}
}

// Issue signs a credential for a verified identity. It cannot fail for a
// valid identity short of an HMAC error.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"isAdmin":  user.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Authenticate turns a raw Authorization header into a live identity
// snapshot, or one of ErrMalformedCredential, ErrInvalidCredential,
// ErrUnknownSubject.
func (s *TokenService) Authenticate(authHeader string) (*models.User, error) {
	if authHeader == "" {
		return nil, ErrMalformedCredential
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrMalformedCredential
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredential
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, ErrInvalidCredential
	}

	user, err := s.lookupUser(int(sub))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("resolve subject: %w", err)
	}
	return user, nil
}

func (s *TokenService) lookupUser(id int) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(`
		SELECT id, username, email, is_admin, balance,
		       COALESCE(company_name, ''), COALESCE(industry, ''), created_at
		FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.IsAdmin, &user.Balance,
			&user.CompanyName, &user.Industry, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

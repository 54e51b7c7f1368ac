package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lib/pq"

	"github.com/marketpulse/backend/internal/auth"
	"github.com/marketpulse/backend/internal/middleware"
	"github.com/marketpulse/backend/internal/models"
)

const pqUniqueViolation = "23505"

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	tokens    *auth.TokenService
	passwords auth.Params
	tokenTTL  time.Duration
	validator *ValidationHelper
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3" example:"jdoe"`
	Email       string `json:"email" validate:"required,email" example:"user@example.com"`
	Password    string `json:"password" validate:"required,min=6" example:"password123"`
	CompanyName string `json:"companyName,omitempty"`
	Industry    string `json:"industry,omitempty"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"jdoe"`
	Password string `json:"password" validate:"required" example:"password123"`
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User  models.User `json:"user"`
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, tokens *auth.TokenService, passwords auth.Params, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		tokens:    tokens,
		passwords: passwords,
		tokenTTL:  tokenTTL,
		validator: NewValidationHelper(),
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new user with username, email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Username or email already exists"
// @Router /register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] Registration failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Username, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	var user models.User
	err = s.db.QueryRow(`
		INSERT INTO users (username, email, password, company_name, industry)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, email, is_admin, balance, created_at`,
		req.Username, strings.ToLower(req.Email), hashedPassword,
		nullable(req.CompanyName), nullable(req.Industry)).
		Scan(&user.ID, &user.Username, &user.Email, &user.IsAdmin, &user.Balance, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			log.Printf("[AUTH] Registration conflict for %s", req.Username)
			SendErrorResponse(w, "Username or email already exists", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] User creation failed for %s: %v", req.Username, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}
	user.CompanyName = req.CompanyName
	user.Industry = req.Industry

	token, err := s.tokens.Issue(&user)
	if err != nil {
		log.Printf("[AUTH] Token issuance failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Registration successful for user %d (%s)", user.ID, user.Username)
	SendJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate user with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var user models.User
	var hashedPassword string
	var company, industry sql.NullString
	err := s.db.QueryRow(`
		SELECT id, username, email, password, is_admin, balance, company_name, industry, created_at
		FROM users WHERE username = $1`, req.Username).
		Scan(&user.ID, &user.Username, &user.Email, &hashedPassword, &user.IsAdmin,
			&user.Balance, &company, &industry, &user.CreatedAt)
	if err != nil {
		log.Printf("[AUTH] User not found: %s", req.Username)
		SendErrorResponse(w, "Invalid username or password", http.StatusUnauthorized, nil)
		return
	}
	user.CompanyName = company.String
	user.Industry = industry.String

	if !s.passwords.VerifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for user: %s", req.Username)
		SendErrorResponse(w, "Invalid username or password", http.StatusUnauthorized, nil)
		return
	}

	token, err := s.tokens.Issue(&user)
	if err != nil {
		log.Printf("[AUTH] Token issuance failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for user %d", user.ID)
	SendJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and blacklist token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && s.redis != nil {
		key := fmt.Sprintf("blacklist:%s", parts[1])
		// Blacklist until the token would have expired anyway.
		if err := s.redis.Set(context.Background(), key, "1", s.tokenTTL).Err(); err != nil {
			log.Printf("[AUTH] Failed to blacklist token: %v", err)
		}
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the authenticated user's live identity snapshot
// @Summary Get current user
// @Description Get the authenticated user's account, including current balance
// @Tags auth
// @Produce json
// @Success 200 {object} models.User "User account details"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /me [get]
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	SendJSON(w, http.StatusOK, user)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package services

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/marketpulse/backend/internal/database"
)

// MockService regenerates demo data for local development.
type MockService struct {
	db *sql.DB
}

func NewMockService(db *sql.DB) *MockService {
	return &MockService{db: db}
}

// Generate reseeds sample campaigns, leads, matches and stock quotes
// @Summary Generate mock data
// @Description Reseed the demo dataset. Intended for local development
// @Tags mock
// @Produce json
// @Success 200 {object} map[string]string
// @Router /mock/generate [post]
func (s *MockService) Generate(w http.ResponseWriter, r *http.Request) {
	if err := database.SeedSampleData(s.db); err != nil {
		log.Printf("[MOCK] Failed to generate mock data: %v", err)
		SendErrorResponse(w, "Failed to generate mock data", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, http.StatusOK, map[string]string{"message": "Mock data generated successfully"})
}

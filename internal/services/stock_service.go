package services

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/marketpulse/backend/internal/ledger"
	"github.com/marketpulse/backend/internal/middleware"
	"github.com/marketpulse/backend/internal/models"
)

type PortfolioService struct {
	db        *sql.DB
	ledger    *ledger.Service
	validator *ValidationHelper
}

type BuyStockRequest struct {
	Symbol   string          `json:"symbol" validate:"required,min=1,max=10"`
	Quantity int64           `json:"quantity" validate:"required"`
	Price    decimal.Decimal `json:"price"`
}

type RecordPriceRequest struct {
	Symbol string          `json:"symbol" validate:"required,min=1,max=10"`
	Price  decimal.Decimal `json:"price"`
}

func NewPortfolioService(db *sql.DB, ledgerSvc *ledger.Service) *PortfolioService {
	return &PortfolioService{db: db, ledger: ledgerSvc, validator: NewValidationHelper()}
}

// ListPortfolio returns the caller's stock positions with current prices
// @Summary List portfolio
// @Description The caller's positions; current price falls back to the
// @Description average cost when no quote has been recorded
// @Tags portfolio
// @Produce json
// @Success 200 {array} models.StockLot
// @Router /portfolio [get]
func (s *PortfolioService) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	lots, err := s.fetchPortfolio(user.ID)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to list portfolio for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch portfolio", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, http.StatusOK, lots)
}

// BuyStock merges a purchase into the caller's position
// @Summary Buy stock
// @Description Create the position or fold the purchase into the
// @Description volume-weighted average cost
// @Tags portfolio
// @Accept json
// @Produce json
// @Param request body BuyStockRequest true "Purchase"
// @Success 201 {object} models.StockLot
// @Failure 400 {object} ErrorResponse "Invalid quantity or price"
// @Router /portfolio [post]
func (s *PortfolioService) BuyStock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req BuyStockRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	lot, err := s.ledger.MergePurchase(user.ID, req.Symbol, req.Quantity, req.Price)
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity):
		SendErrorResponse(w, "Quantity must be a positive integer", http.StatusBadRequest, nil)
		return
	case errors.Is(err, ledger.ErrInvalidPrice):
		SendErrorResponse(w, "Price must be positive", http.StatusBadRequest, nil)
		return
	case err != nil:
		log.Printf("[PORTFOLIO] Purchase failed for user %d (%s): %v", user.ID, req.Symbol, err)
		SendErrorResponse(w, "Failed to buy stock", http.StatusInternalServerError, nil)
		return
	}
	lot.CurrentPrice = s.currentPrice(lot.Symbol, lot.AverageCost)

	log.Printf("[PORTFOLIO] User %d bought %d %s @ %s", user.ID, req.Quantity, req.Symbol, req.Price)
	SendJSON(w, http.StatusCreated, map[string]any{
		"message": "Purchase recorded successfully",
		"stock":   lot,
	})
}

// PortfolioSummary aggregates the caller's portfolio value
// @Summary Portfolio summary
// @Description Total value, cost basis and gain across all positions
// @Tags portfolio
// @Produce json
// @Success 200 {object} models.PortfolioSummary
// @Router /portfolioSummary [get]
func (s *PortfolioService) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	lots, err := s.fetchPortfolio(user.ID)
	if err != nil {
		log.Printf("[PORTFOLIO] Summary failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch portfolio summary", http.StatusInternalServerError, nil)
		return
	}

	summary := models.PortfolioSummary{Positions: len(lots)}
	for _, lot := range lots {
		qty := decimal.NewFromInt(lot.Quantity)
		summary.TotalValue = summary.TotalValue.Add(qty.Mul(lot.CurrentPrice))
		summary.TotalCost = summary.TotalCost.Add(qty.Mul(lot.AverageCost))
	}
	summary.Gain = summary.TotalValue.Sub(summary.TotalCost)
	if summary.TotalCost.Sign() != 0 {
		hundred := decimal.NewFromInt(100)
		summary.GainPercent = summary.Gain.Div(summary.TotalCost).Mul(hundred)
	}

	SendJSON(w, http.StatusOK, summary)
}

// RecordPrice stores a quote for a symbol
// @Summary Record stock price
// @Description Admin only. Records the latest quote used for valuations
// @Tags portfolio
// @Accept json
// @Produce json
// @Param request body RecordPriceRequest true "Quote"
// @Success 201 {object} models.StockPrice
// @Router /stocks/prices [post]
func (s *PortfolioService) RecordPrice(w http.ResponseWriter, r *http.Request) {
	var req RecordPriceRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if req.Price.Sign() <= 0 {
		SendErrorResponse(w, "Price must be positive", http.StatusBadRequest, nil)
		return
	}

	price := models.StockPrice{Symbol: req.Symbol, Price: req.Price}
	err := s.db.QueryRow(`
		INSERT INTO stock_prices (symbol, price)
		VALUES ($1, $2)
		RETURNING as_of`, req.Symbol, req.Price.String()).Scan(&price.AsOf)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to record price for %s: %v", req.Symbol, err)
		SendErrorResponse(w, "Failed to record price", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[PORTFOLIO] Price recorded: %s @ %s", req.Symbol, req.Price)
	SendJSON(w, http.StatusCreated, price)
}

func (s *PortfolioService) fetchPortfolio(userID int) ([]models.StockLot, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.user_id, s.symbol, s.quantity, s.average_cost,
		       COALESCE(p.price::text, s.average_cost::text), s.updated_at
		FROM stocks s
		LEFT JOIN LATERAL (
			SELECT price FROM stock_prices
			WHERE symbol = s.symbol
			ORDER BY as_of DESC
			LIMIT 1
		) p ON TRUE
		WHERE s.user_id = $1
		ORDER BY s.symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := []models.StockLot{}
	for rows.Next() {
		var lot models.StockLot
		var costStr, priceStr string
		err := rows.Scan(&lot.ID, &lot.UserID, &lot.Symbol, &lot.Quantity, &costStr, &priceStr, &lot.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if lot.AverageCost, err = decimal.NewFromString(costStr); err != nil {
			return nil, err
		}
		if lot.CurrentPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// currentPrice is the single-symbol form of the portfolio price lookup.
func (s *PortfolioService) currentPrice(symbol string, fallback decimal.Decimal) decimal.Decimal {
	var priceStr string
	err := s.db.QueryRow(`
		SELECT price::text FROM stock_prices
		WHERE symbol = $1
		ORDER BY as_of DESC
		LIMIT 1`, symbol).Scan(&priceStr)
	if err != nil {
		return fallback
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return fallback
	}
	return price
}

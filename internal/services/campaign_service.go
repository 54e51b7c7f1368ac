package services

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketpulse/backend/internal/middleware"
	"github.com/marketpulse/backend/internal/models"
)

type CampaignService struct {
	db        *sql.DB
	validator *ValidationHelper
}

type CampaignRequest struct {
	Name           string     `json:"name" validate:"required"`
	Description    string     `json:"description,omitempty"`
	TargetAudience string     `json:"targetAudience,omitempty"`
	Status         string     `json:"status,omitempty" validate:"omitempty,oneof=draft planned active completed"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Budget         float64    `json:"budget,omitempty" validate:"omitempty,gte=0"`
}

type LeadRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	JobTitle  string `json:"jobTitle,omitempty"`
	Source    string `json:"source,omitempty"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted unqualified"`
	Notes     string `json:"notes,omitempty"`
}

// LeadUpdateRequest carries a partial update; absent fields keep their
// stored values.
type LeadUpdateRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`
	JobTitle  *string `json:"jobTitle,omitempty"`
	Source    *string `json:"source,omitempty"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted unqualified"`
	Notes     *string `json:"notes,omitempty"`
}

func NewCampaignService(db *sql.DB) *CampaignService {
	return &CampaignService{db: db, validator: NewValidationHelper()}
}

// ListCampaigns returns the caller's campaigns
// @Summary List campaigns
// @Description List the authenticated user's campaigns, newest first
// @Tags campaigns
// @Produce json
// @Success 200 {array} models.Campaign
// @Router /campaigns [get]
func (s *CampaignService) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	rows, err := s.db.Query(`
		SELECT id, user_id, name, description, target_audience, status, start_date, end_date, budget
		FROM campaigns
		WHERE user_id = $1
		ORDER BY start_date DESC`, user.ID)
	if err != nil {
		log.Printf("[CAMPAIGN] Failed to list campaigns for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch campaigns", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		var c models.Campaign
		var description, audience sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &description, &audience, &c.Status, &c.StartDate, &c.EndDate, &c.Budget); err != nil {
			SendErrorResponse(w, "Failed to fetch campaigns", http.StatusInternalServerError, nil)
			return
		}
		c.Description = description.String
		c.TargetAudience = audience.String
		campaigns = append(campaigns, c)
	}

	SendJSON(w, http.StatusOK, campaigns)
}

// CreateCampaign creates a campaign owned by the caller
// @Summary Create campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Param request body CampaignRequest true "Campaign"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} ErrorResponse
// @Router /campaigns [post]
func (s *CampaignService) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req CampaignRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.Status == "" {
		req.Status = "draft"
	}
	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	c := models.Campaign{
		UserID:         user.ID,
		Name:           req.Name,
		Description:    req.Description,
		TargetAudience: req.TargetAudience,
		Status:         req.Status,
		StartDate:      startDate,
		EndDate:        req.EndDate,
		Budget:         req.Budget,
	}
	err := s.db.QueryRow(`
		INSERT INTO campaigns (user_id, name, description, target_audience, status, start_date, end_date, budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		c.UserID, c.Name, nullable(c.Description), nullable(c.TargetAudience),
		c.Status, c.StartDate, c.EndDate, c.Budget).Scan(&c.ID)
	if err != nil {
		log.Printf("[CAMPAIGN] Failed to create campaign for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to create campaign", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[CAMPAIGN] Campaign %d created by user %d", c.ID, user.ID)
	SendJSON(w, http.StatusCreated, map[string]any{
		"message":  "Campaign created successfully",
		"campaign": c,
	})
}

// GetCampaign returns one campaign with its leads
// @Summary Get campaign details
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} models.CampaignDetails
// @Failure 404 {object} ErrorResponse "Campaign not found"
// @Router /campaigns/{id} [get]
func (s *CampaignService) GetCampaign(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Campaign not found", http.StatusNotFound, nil)
		return
	}

	campaign, err := ownedCampaign(s.db, campaignID, user.ID)
	if err == ErrNotFound {
		SendErrorResponse(w, "Campaign not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CAMPAIGN] Failed to fetch campaign %d: %v", campaignID, err)
		SendErrorResponse(w, "Failed to fetch campaign", http.StatusInternalServerError, nil)
		return
	}

	leads, err := s.fetchLeads(campaignID)
	if err != nil {
		log.Printf("[CAMPAIGN] Failed to fetch leads for campaign %d: %v", campaignID, err)
		SendErrorResponse(w, "Failed to fetch campaign", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, models.CampaignDetails{Campaign: *campaign, Leads: leads})
}

// AddLead attaches a lead to an owned campaign
// @Summary Add lead
// @Tags leads
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param request body LeadRequest true "Lead"
// @Success 201 {object} models.Lead
// @Failure 404 {object} ErrorResponse "Campaign not found"
// @Router /campaigns/{id}/leads [post]
func (s *CampaignService) AddLead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Campaign not found", http.StatusNotFound, nil)
		return
	}

	var req LeadRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if _, err := ownedCampaign(s.db, campaignID, user.ID); err != nil {
		if err == ErrNotFound {
			SendErrorResponse(w, "Campaign not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[LEAD] Campaign check failed for campaign %d: %v", campaignID, err)
			SendErrorResponse(w, "Failed to add lead", http.StatusInternalServerError, nil)
		}
		return
	}

	if req.Status == "" {
		req.Status = "new"
	}

	l := models.Lead{
		CampaignID: campaignID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		JobTitle:   req.JobTitle,
		Source:     req.Source,
		Status:     req.Status,
		Notes:      req.Notes,
	}
	err = s.db.QueryRow(`
		INSERT INTO leads (campaign_id, first_name, last_name, email, phone, company, job_title, source, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, date_created`,
		l.CampaignID, nullable(l.FirstName), nullable(l.LastName), l.Email,
		nullable(l.Phone), nullable(l.Company), nullable(l.JobTitle),
		nullable(l.Source), l.Status, nullable(l.Notes)).Scan(&l.ID, &l.DateCreated)
	if err != nil {
		log.Printf("[LEAD] Failed to add lead to campaign %d: %v", campaignID, err)
		SendErrorResponse(w, "Failed to add lead", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[LEAD] Lead %d added to campaign %d by user %d", l.ID, campaignID, user.ID)
	SendJSON(w, http.StatusCreated, map[string]any{
		"message": "Lead added successfully",
		"lead":    l,
	})
}

// UpdateLead applies a partial update to a lead under an owned campaign
// @Summary Update lead
// @Tags leads
// @Accept json
// @Produce json
// @Param id path int true "Campaign ID"
// @Param leadId path int true "Lead ID"
// @Param request body LeadUpdateRequest true "Fields to update"
// @Success 200 {object} models.Lead
// @Failure 404 {object} ErrorResponse "Campaign or lead not found"
// @Router /campaigns/{id}/leads/{leadId} [put]
func (s *CampaignService) UpdateLead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Campaign not found", http.StatusNotFound, nil)
		return
	}
	leadID, err := strconv.Atoi(chi.URLParam(r, "leadId"))
	if err != nil {
		SendErrorResponse(w, "Lead not found", http.StatusNotFound, nil)
		return
	}

	var req LeadUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if _, err := ownedCampaign(s.db, campaignID, user.ID); err != nil {
		if err == ErrNotFound {
			SendErrorResponse(w, "Campaign not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to update lead", http.StatusInternalServerError, nil)
		}
		return
	}

	lead, err := campaignLead(s.db, leadID, campaignID)
	if err != nil {
		if err == ErrNotFound {
			SendErrorResponse(w, "Lead not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to update lead", http.StatusInternalServerError, nil)
		}
		return
	}

	applyString(&lead.FirstName, req.FirstName)
	applyString(&lead.LastName, req.LastName)
	applyString(&lead.Email, req.Email)
	applyString(&lead.Phone, req.Phone)
	applyString(&lead.Company, req.Company)
	applyString(&lead.JobTitle, req.JobTitle)
	applyString(&lead.Source, req.Source)
	applyString(&lead.Status, req.Status)
	applyString(&lead.Notes, req.Notes)

	_, err = s.db.Exec(`
		UPDATE leads
		SET first_name = $1, last_name = $2, email = $3, phone = $4, company = $5,
		    job_title = $6, source = $7, status = $8, notes = $9
		WHERE id = $10`,
		nullable(lead.FirstName), nullable(lead.LastName), lead.Email,
		nullable(lead.Phone), nullable(lead.Company), nullable(lead.JobTitle),
		nullable(lead.Source), lead.Status, nullable(lead.Notes), lead.ID)
	if err != nil {
		log.Printf("[LEAD] Failed to update lead %d: %v", leadID, err)
		SendErrorResponse(w, "Failed to update lead", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[LEAD] Lead %d updated by user %d", leadID, user.ID)
	SendJSON(w, http.StatusOK, map[string]any{
		"message": "Lead updated successfully",
		"lead":    lead,
	})
}

// DashboardStats aggregates the caller's CRM activity
// @Summary Dashboard statistics
// @Description Campaign and lead counts, leads grouped by status, recent leads
// @Tags campaigns
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /dashboardStats [get]
func (s *CampaignService) DashboardStats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	stats := models.DashboardStats{
		LeadsByStatus: map[string]int{},
		RecentLeads:   []models.RecentLead{},
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active')
		FROM campaigns WHERE user_id = $1`, user.ID).
		Scan(&stats.TotalCampaigns, &stats.ActiveCampaigns)
	if err != nil {
		log.Printf("[DASHBOARD] Campaign counts failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch dashboard stats", http.StatusInternalServerError, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT leads.status, COUNT(*)
		FROM leads
		JOIN campaigns ON leads.campaign_id = campaigns.id
		WHERE campaigns.user_id = $1
		GROUP BY leads.status`, user.ID)
	if err != nil {
		log.Printf("[DASHBOARD] Lead counts failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch dashboard stats", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			SendErrorResponse(w, "Failed to fetch dashboard stats", http.StatusInternalServerError, nil)
			return
		}
		stats.LeadsByStatus[status] = count
		stats.TotalLeads += count
	}

	recent, err := s.db.Query(`
		SELECT leads.id, leads.first_name, leads.last_name, leads.email,
		       campaigns.name, leads.status, leads.date_created
		FROM leads
		JOIN campaigns ON leads.campaign_id = campaigns.id
		WHERE campaigns.user_id = $1
		ORDER BY leads.date_created DESC
		LIMIT 5`, user.ID)
	if err != nil {
		log.Printf("[DASHBOARD] Recent leads failed for user %d: %v", user.ID, err)
		SendErrorResponse(w, "Failed to fetch dashboard stats", http.StatusInternalServerError, nil)
		return
	}
	defer recent.Close()
	for recent.Next() {
		var l models.RecentLead
		var first, last sql.NullString
		if err := recent.Scan(&l.ID, &first, &last, &l.Email, &l.CampaignName, &l.Status, &l.DateCreated); err != nil {
			SendErrorResponse(w, "Failed to fetch dashboard stats", http.StatusInternalServerError, nil)
			return
		}
		l.FirstName = first.String
		l.LastName = last.String
		stats.RecentLeads = append(stats.RecentLeads, l)
	}

	SendJSON(w, http.StatusOK, stats)
}

func (s *CampaignService) fetchLeads(campaignID int) ([]models.Lead, error) {
	rows, err := s.db.Query(`
		SELECT id, campaign_id, first_name, last_name, email, phone, company, job_title, source, status, notes, date_created
		FROM leads
		WHERE campaign_id = $1
		ORDER BY date_created DESC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		var l models.Lead
		var first, last, phone, company, jobTitle, source, notes sql.NullString
		err := rows.Scan(&l.ID, &l.CampaignID, &first, &last, &l.Email, &phone,
			&company, &jobTitle, &source, &l.Status, &notes, &l.DateCreated)
		if err != nil {
			return nil, err
		}
		l.FirstName = first.String
		l.LastName = last.String
		l.Phone = phone.String
		l.Company = company.String
		l.JobTitle = jobTitle.String
		l.Source = source.String
		l.Notes = notes.String
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

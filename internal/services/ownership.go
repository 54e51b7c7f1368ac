package services

import (
	"database/sql"
	"errors"

	"github.com/marketpulse/backend/internal/models"
)

// ErrNotFound is returned both when a resource is genuinely absent and
// when it exists but belongs to another identity. The two cases are
// deliberately indistinguishable so the API never confirms the existence
// of somebody else's data.
var ErrNotFound = errors.New("not found")

type rowQuerier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ownedCampaign loads a campaign scoped to its owner. Any request for a
// campaign the caller does not own collapses into ErrNotFound.
func ownedCampaign(q rowQuerier, campaignID, userID int) (*models.Campaign, error) {
	var c models.Campaign
	var description, audience sql.NullString
	err := q.QueryRow(`
		SELECT id, user_id, name, description, target_audience, status, start_date, end_date, budget
		FROM campaigns
		WHERE id = $1 AND user_id = $2`, campaignID, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &description, &audience, &c.Status, &c.StartDate, &c.EndDate, &c.Budget)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	c.TargetAudience = audience.String
	return &c, nil
}

// campaignLead loads a lead scoped to its parent campaign. The campaign
// must already have passed the ownership check.
func campaignLead(q rowQuerier, leadID, campaignID int) (*models.Lead, error) {
	var l models.Lead
	var first, last, phone, company, jobTitle, source, notes sql.NullString
	err := q.QueryRow(`
		SELECT id, campaign_id, first_name, last_name, email, phone, company, job_title, source, status, notes, date_created
		FROM leads
		WHERE id = $1 AND campaign_id = $2`, leadID, campaignID).
		Scan(&l.ID, &l.CampaignID, &first, &last, &l.Email, &phone, &company, &jobTitle, &source, &l.Status, &notes, &l.DateCreated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
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
	return &l, nil
}

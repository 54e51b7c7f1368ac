package models

import "time"

type Campaign struct {
	ID             int        `json:"id"`
	UserID         int        `json:"-"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	TargetAudience string     `json:"targetAudience,omitempty"`
	Status         string     `json:"status"` // draft, planned, active, completed
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Budget         float64    `json:"budget"`
}

type Lead struct {
	ID          int       `json:"id"`
	CampaignID  int       `json:"-"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	JobTitle    string    `json:"jobTitle,omitempty"`
	Source      string    `json:"source,omitempty"`
	Status      string    `json:"status"` // new, contacted, qualified, converted, unqualified
	Notes       string    `json:"notes,omitempty"`
	DateCreated time.Time `json:"dateCreated"`
}

type CampaignDetails struct {
	Campaign
	Leads []Lead `json:"leads"`
}

// RecentLead is the trimmed lead row shown on the dashboard.
type RecentLead struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Email        string    `json:"email"`
	CampaignName string    `json:"campaignName"`
	Status       string    `json:"status"`
	DateCreated  time.Time `json:"dateCreated"`
}

type DashboardStats struct {
	TotalCampaigns  int            `json:"totalCampaigns"`
	ActiveCampaigns int            `json:"activeCampaigns"`
	TotalLeads      int            `json:"totalLeads"`
	LeadsByStatus   map[string]int `json:"leadsByStatus"`
	RecentLeads     []RecentLead   `json:"recentLeads"`
}

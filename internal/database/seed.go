package database

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"
)

var sampleCampaigns = []struct {
	name, description, audience, status string
	budget                              float64
}{
	{"Summer Email Campaign", "Email campaign targeting small business owners for our summer promotion", "Small business owners, 25-55 years old", "active", 5000},
	{"Social Media Lead Generation", "Facebook and Instagram ads to generate leads for sales team", "Marketing professionals, 23-45 years old", "active", 3500},
	{"Website Conversion Optimization", "A/B testing and optimization for landing page conversions", "Website visitors, existing customers", "draft", 2000},
	{"Trade Show Lead Collection", "Lead collection system for upcoming industry trade show", "Industry professionals, decision makers", "planned", 7500},
}

var (
	leadSources  = []string{"Website", "Social Media", "Email", "Referral", "Trade Show", "Cold Call", "Webinar"}
	leadStatuses = []string{"new", "contacted", "qualified", "converted", "unqualified"}
	companies    = []string{"Acme Inc.", "Globex Corporation", "Initech", "Wayne Enterprises", "Stark Industries", "Umbrella Corporation", "Cyberdyne Systems", "Aperture Science"}
	jobTitles    = []string{"CEO", "CTO", "CMO", "Marketing Manager", "VP Sales", "Director of Operations", "Business Development Manager", "Product Manager"}
)

var sampleMatches = []struct {
	home, away, sport, league string
	homeOdds, awayOdds        float64
	drawOdds                  *float64
}{
	{"Lakers", "Celtics", "basketball", "NBA", 1.85, 1.95, nil},
	{"Yankees", "Red Sox", "baseball", "MLB", 1.70, 2.10, nil},
	{"Arsenal", "Chelsea", "soccer", "Premier League", 2.20, 3.10, f(3.40)},
	{"Rangers", "Bruins", "hockey", "NHL", 2.05, 1.80, nil},
	{"Chiefs", "Eagles", "football", "NFL", 1.90, 1.90, nil},
}

var samplePrices = map[string]float64{
	"ACME": 104.25, "GLBX": 57.80, "INTC": 31.45, "WAYN": 212.10, "STRK": 188.62,
}

func f(v float64) *float64 { return &v }

// SeedSampleData wipes and regenerates demo data for the admin account:
// campaigns with leads, a slate of upcoming matches, and recent stock
// prices. Mirrors the mock-data route of the original deployment.
func SeedSampleData(db *sql.DB) error {
	var adminID int
	if err := db.QueryRow(`SELECT id FROM users WHERE username = 'admin'`).Scan(&adminID); err != nil {
		return fmt.Errorf("admin user not found: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM leads WHERE campaign_id IN (SELECT id FROM campaigns WHERE user_id = $1)`, adminID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM campaigns WHERE user_id = $1`, adminID); err != nil {
		return err
	}

	for _, c := range sampleCampaigns {
		startDate := time.Now().AddDate(0, 0, -rand.Intn(55)-5)
		var endDate *time.Time
		if c.status != "completed" {
			e := time.Now().AddDate(0, 0, rand.Intn(90)+30)
			endDate = &e
		}

		var campaignID int
		err := tx.QueryRow(`
			INSERT INTO campaigns (user_id, name, description, target_audience, status, start_date, end_date, budget)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			adminID, c.name, c.description, c.audience, c.status, startDate, endDate, c.budget).Scan(&campaignID)
		if err != nil {
			return err
		}

		for i := 0; i < rand.Intn(15)+5; i++ {
			first := fmt.Sprintf("FirstName%d", rand.Intn(1000)+1)
			last := fmt.Sprintf("LastName%d", rand.Intn(1000)+1)
			_, err := tx.Exec(`
				INSERT INTO leads (campaign_id, first_name, last_name, email, phone, company, job_title, source, status, date_created)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				campaignID, first, last,
				fmt.Sprintf("%s.%s@example.com", first, last),
				fmt.Sprintf("555-%03d-%04d", rand.Intn(900)+100, rand.Intn(9000)+1000),
				companies[rand.Intn(len(companies))],
				jobTitles[rand.Intn(len(jobTitles))],
				leadSources[rand.Intn(len(leadSources))],
				leadStatuses[rand.Intn(len(leadStatuses))],
				time.Now().AddDate(0, 0, -rand.Intn(30)))
			if err != nil {
				return err
			}
		}
	}

	// Matches and prices are global, so only top them up when missing.
	var matchCount int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&matchCount); err != nil {
		return err
	}
	if matchCount == 0 {
		for _, m := range sampleMatches {
			_, err := tx.Exec(`
				INSERT INTO matches (home_team, away_team, sport, league, start_time, home_odds, away_odds, draw_odds, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled')`,
				m.home, m.away, m.sport, m.league,
				time.Now().Add(time.Duration(rand.Intn(72)+1)*time.Hour),
				m.homeOdds, m.awayOdds, m.drawOdds)
			if err != nil {
				return err
			}
		}
	}

	var priceCount int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM stock_prices`).Scan(&priceCount); err != nil {
		return err
	}
	if priceCount == 0 {
		for symbol, price := range samplePrices {
			if _, err := tx.Exec(`INSERT INTO stock_prices (symbol, price) VALUES ($1, $2)`, symbol, price); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

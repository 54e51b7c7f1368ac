package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/marketpulse/backend/internal/auth"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		balance DOUBLE PRECISION NOT NULL DEFAULT 1000,
		company_name TEXT,
		industry TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		description TEXT,
		target_audience TEXT,
		status TEXT NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		budget DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id SERIAL PRIMARY KEY,
		campaign_id INTEGER NOT NULL REFERENCES campaigns(id),
		first_name TEXT,
		last_name TEXT,
		email TEXT NOT NULL,
		phone TEXT,
		company TEXT,
		job_title TEXT,
		source TEXT,
		status TEXT NOT NULL,
		notes TEXT,
		date_created TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id SERIAL PRIMARY KEY,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		sport TEXT NOT NULL,
		league TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		home_odds DOUBLE PRECISION NOT NULL,
		away_odds DOUBLE PRECISION NOT NULL,
		draw_odds DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'scheduled',
		home_score INTEGER,
		away_score INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id SERIAL PRIMARY KEY,
		reference TEXT UNIQUE NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id),
		match_id INTEGER NOT NULL REFERENCES matches(id),
		team_bet_on TEXT NOT NULL,
		odds DOUBLE PRECISION NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		potential DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		date_created TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stocks (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		quantity BIGINT NOT NULL,
		average_cost NUMERIC(24, 10) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, symbol)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_prices (
		id SERIAL PRIMARY KEY,
		symbol TEXT NOT NULL,
		price NUMERIC(24, 10) NOT NULL,
		as_of TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_user ON campaigns(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bets_user ON bets(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_prices_symbol ON stock_prices(symbol, as_of DESC)`,
}

// EnsureSchema creates all tables on startup and seeds the default admin
// account if it does not exist yet.
func EnsureSchema(db *sql.DB, passwords auth.Params) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}

	var adminID int
	err := db.QueryRow(`SELECT id FROM users WHERE username = 'admin'`).Scan(&adminID)
	if err == sql.ErrNoRows {
		hashed, err := passwords.HashPassword("admin")
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		_, err = db.Exec(`
			INSERT INTO users (username, email, password, is_admin)
			VALUES ('admin', 'admin@example.com', $1, TRUE)`, hashed)
		if err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		log.Println("Default admin user created")
		return nil
	}
	return err
}

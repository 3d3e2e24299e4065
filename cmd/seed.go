package cmd

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/vaultmeet/vaultmeet/internal/config"
	"github.com/vaultmeet/vaultmeet/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo applications...")

		if err := seedSeekers(sqlDB); err != nil {
			return err
		}
		if err := seedSponsors(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type demoSeeker struct {
	id, name, email  string
	age              int
	location, bio    string
	sponsorType      string
	proofURL, status string
}

// seedSeekers inserts deterministic demo seekers (idempotent upsert on id).
func seedSeekers(dbx *sqlx.DB) error {
	seekers := []demoSeeker{
		{"01SEEDSEEKER0000000000000A", "Amara Obi", "amara@example.com", 24, "Lagos", "Graduate looking for support", "Sugar Daddy", "https://img.example/proofs/a.png", "pending"},
		{"01SEEDSEEKER0000000000000B", "Tunde Bello", "tunde@example.com", 27, "Abuja", "Model and part-time student", "Sugar Mummy", "https://img.example/proofs/b.png", "approved"},
		{"01SEEDSEEKER0000000000000C", "Chika Eze", "chika@example.com", 22, "Port Harcourt", "Open-minded and ambitious", "Either", "https://img.example/proofs/c.png", "rejected"},
	}

	const q = `
INSERT INTO seekers
    (id, full_name, email, age, location, bio, sponsor_type, proof_url, status, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
ON DUPLICATE KEY UPDATE
    status     = VALUES(status),
    updated_at = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range seekers {
		if _, err := tx.Exec(q, s.id, s.name, s.email, s.age, s.location, s.bio, s.sponsorType, s.proofURL, s.status); err != nil {
			return fmt.Errorf("insert seeker %q: %w", s.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seekers: %w", err)
	}
	return nil
}

// seedSponsors inserts deterministic demo sponsors (idempotent upsert on id).
func seedSponsors(dbx *sqlx.DB) error {
	type demoSponsor struct {
		id, name, email  string
		age              int
		location, bio    string
		seekerType       string
		budget           float64
		proofURL, status string
	}
	sponsors := []demoSponsor{
		{"01SEEDSPONSOR000000000000A", "Chief Adewale", "adewale@example.com", 52, "Lekki", "Businessman, discreet", "Sugar Mummy", 350000, "https://img.example/proofs/d.png", "pending"},
		{"01SEEDSPONSOR000000000000B", "Madam Folake", "folake@example.com", 45, "Ikoyi", "Hotelier seeking company", "Sugar Daddy", 500000, "https://img.example/proofs/e.png", "approved"},
	}

	const q = `
INSERT INTO sponsors
    (id, full_name, email, age, location, bio, seeker_type, monthly_budget, proof_url, status, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
ON DUPLICATE KEY UPDATE
    status     = VALUES(status),
    updated_at = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range sponsors {
		if _, err := tx.Exec(q, s.id, s.name, s.email, s.age, s.location, s.bio, s.seekerType, s.budget, s.proofURL, s.status); err != nil {
			return fmt.Errorf("insert sponsor %q: %w", s.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sponsors: %w", err)
	}
	return nil
}

// seed inserts a test account, a batch and 12 call jobs into the local dev
// database. Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mariandamblena/speechAi-sub000/internal/infrastructure/postgres"
)

const (
	seedAccount = "Seed Account"
	seedBatch   = "Seed campaign"
)

type seedContact struct {
	name   string
	extID  string
	phones []string
}

var jobs = []seedContact{
	// Single-number contacts
	{"Ana Torres", "debt-001", []string{"+56911111001"}},
	{"Bruno Díaz", "debt-002", []string{"+56911111002"}},
	{"Carla Soto", "debt-003", []string{"+56911111003"}},
	{"Diego Pérez", "debt-004", []string{"+56911111004"}},

	// Contacts with fallback numbers, exercises the phone cursor
	{"Elena Rojas", "debt-005", []string{"+56911111005", "+56922222005"}},
	{"Felipe Muñoz", "debt-006", []string{"+56911111006", "+56922222006"}},
	{"Gabriela Vega", "debt-007", []string{"+56911111007", "+56922222007", "+56933333007"}},
	{"Hugo Castro", "debt-008", []string{"+56911111008", "+56922222008", "+56933333008"}},

	// More single-number contacts
	{"Inés Fuentes", "debt-009", []string{"+56911111009"}},
	{"Javier Lagos", "debt-010", []string{"+56911111010"}},
	{"Karen Silva", "debt-011", []string{"+56911111011"}},
	{"Luis Morales", "debt-012", []string{"+56911111012"}},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Reuse the seed account across runs; create it on the first one.
	var accountID string
	err = pool.QueryRow(ctx, `SELECT id FROM accounts WHERE name = $1`, seedAccount).Scan(&accountID)
	if err != nil {
		err = pool.QueryRow(ctx, `
			INSERT INTO accounts (name, plan_type, available_credit, cost_per_minute)
			VALUES ($1, 'credit_based', 1000, 0.1)
			RETURNING id`,
			seedAccount,
		).Scan(&accountID)
		if err != nil {
			log.Fatalf("insert account: %v", err)
		}
	}

	// Batch with a wide calling window so seeded jobs dial immediately
	var batchID string
	err = pool.QueryRow(ctx, `
		INSERT INTO batches (account_id, name, is_active, call_settings, total_jobs)
		VALUES ($1, $2, TRUE,
			'{"max_attempts": 3, "allowed_hours": {"start": "00:00", "end": "23:59"}, "timezone": "America/Santiago"}',
			$3)
		RETURNING id`,
		accountID, seedBatch, len(jobs),
	).Scan(&batchID)
	if err != nil {
		log.Fatalf("insert batch: %v", err)
	}

	var inserted int
	var jobIDs []string
	for _, c := range jobs {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO call_jobs (
				batch_id, account_id, status, max_attempts,
				contact_name, contact_ext_id, phones, next_phone_index, payload
			) VALUES ($1, $2, 'pending', 3, $3, $4, $5, 0, $6)
			RETURNING id`,
			batchID, accountID, c.name, c.extID, c.phones,
			map[string]string{"debtor_name": c.name, "debt_id": c.extID},
		).Scan(&id)
		if err != nil {
			log.Fatalf("insert job %s: %v", c.extID, err)
		}
		jobIDs = append(jobIDs, id)
		inserted++
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Account:      %s\n", accountID)
	fmt.Printf("  Batch:        %s\n", batchID)
	fmt.Printf("  Jobs created: %d\n", inserted)
	fmt.Println()

	if len(jobIDs) > 0 {
		fmt.Println("  Sample job IDs:")
		limit := 5
		if len(jobIDs) < limit {
			limit = len(jobIDs)
		}
		for _, id := range jobIDs[:limit] {
			fmt.Printf("    %s\n", id)
		}
	}

	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — start the dialer (it claims pending jobs within seconds):")
	fmt.Println()
	fmt.Println("    go run ./cmd/dialer")
	fmt.Println()
	fmt.Println("  Step 2 — query a job through the ops API (sign a JWT with JWT_SECRET):")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s http://localhost:8080/jobs/JOB_ID -H \"Authorization: Bearer $JWT\"")
	fmt.Println()
	fmt.Printf("    curl -s 'http://localhost:8080/jobs?batch_id=%s' -H \"Authorization: Bearer $JWT\"\n", batchID)
	fmt.Println()
	fmt.Println("  Step 3 — inspect attempt history once calls finish:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/jobs/JOB_ID/attempts -H \"Authorization: Bearer $JWT\"")
}

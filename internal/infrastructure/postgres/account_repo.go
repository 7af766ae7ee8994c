package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

const accountColumns = `id, name, plan_type, remaining_minutes, available_credit,
	cost_per_call_setup, cost_per_minute, created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, plan_type, remaining_minutes, available_credit,
		                      cost_per_call_setup, cost_per_minute)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		a.Name, a.PlanType, a.RemainingMinutes, a.AvailableCredit,
		a.CostPerCallSetup, a.CostPerMinute)
	return scanAccount(row)
}

func (r *AccountRepository) CheckBalance(ctx context.Context, accountID string) (bool, error) {
	acct, err := r.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return acct.HasBalance(), nil
}

// DebitUsage charges minutes and credit in one statement. Balances are
// clamped at zero; the admission check already ran before the call started.
func (r *AccountRepository) DebitUsage(ctx context.Context, accountID string, minutes float64, cost float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET    remaining_minutes = GREATEST(remaining_minutes - $2, 0),
		       available_credit  = GREATEST(available_credit - $3, 0),
		       updated_at        = NOW()
		WHERE id = $1`,
		accountID, minutes, cost)
	if err != nil {
		return fmt.Errorf("debit usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.PlanType, &a.RemainingMinutes, &a.AvailableCredit,
		&a.CostPerCallSetup, &a.CostPerMinute, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

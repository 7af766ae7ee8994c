package repository

import (
	"context"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

// AccountService is the billing collaborator. CheckBalance gates call
// admission; DebitUsage is fire-and-forget after a successful call.
type AccountService interface {
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)

	// CheckBalance reports whether the account can afford one more call.
	CheckBalance(ctx context.Context, accountID string) (bool, error)

	// DebitUsage charges the observed minutes plus the per-call setup cost.
	DebitUsage(ctx context.Context, accountID string, minutes float64, cost float64) error
}

package usecase

import (
	"context"
	"fmt"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

type AccountUsecase struct {
	accounts repository.AccountService
}

func NewAccountUsecase(accounts repository.AccountService) *AccountUsecase {
	return &AccountUsecase{accounts: accounts}
}

func (u *AccountUsecase) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := u.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

package service

import (
	"context"

	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	walletRepo wallet.Repository
}

// NewWalletService creates a new wallet service
func NewWalletService(walletRepo wallet.Repository) WalletService {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
	}
}

func (s *WalletServiceImpl) GetWallet(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.walletRepo.GetByOwner(ctx, owner)
}

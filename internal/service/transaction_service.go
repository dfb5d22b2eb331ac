package service

import (
	"context"

	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/repository"
)

// TransactionService serves read-only transaction lookups.
type TransactionService struct {
	transactions repository.TransactionRepository
}

func NewTransactionService(transactions repository.TransactionRepository) *TransactionService {
	return &TransactionService{transactions: transactions}
}

func (s *TransactionService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tx, nil
}

func (s *TransactionService) GetItems(ctx context.Context, id string) ([]*domain.TransactionItem, error) {
	if _, err := s.GetTransaction(ctx, id); err != nil {
		return nil, err
	}
	return s.transactions.GetItems(ctx, id)
}

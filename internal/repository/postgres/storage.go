package postgres

import (
	"context"
	"fmt"

	"github.com/surgeseven/settlement/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Balance() repository.BalanceRepo {
	return &BalanceRepo{DB: s.db}
}

func (s *Storage) Withdrawal() repository.WithdrawalRepo {
	return &WithdrawalRepo{DB: s.db}
}

func (s *Storage) Booking() repository.BookingRepo {
	return &BookingRepo{DB: s.db}
}

func (s *Storage) Subscription() repository.SubscriptionRepo {
	return &SubscriptionRepo{DB: s.db}
}

func (s *Storage) Payment() repository.PaymentRepo {
	return &PaymentRepo{DB: s.db}
}

func (s *Storage) Tracker() repository.TrackerRepo {
	return &TrackerRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}

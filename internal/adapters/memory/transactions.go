// internal/adapters/memory/transactions.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.txs[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return cloneTransaction(t), nil
}

func (r *transactionRepo) List(ctx context.Context, params ports.TxListParams) ([]*domain.Transaction, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Transaction
	for _, t := range r.s.txs {
		if params.ItemID != uuid.Nil && t.ItemID != params.ItemID {
			continue
		}
		if params.Type != "" && t.Type != params.Type {
			continue
		}
		if params.Status != "" && t.Status != params.Status {
			continue
		}
		matched = append(matched, cloneTransaction(t))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := params.Offset()
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, returnedAt *time.Time) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.txs[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	t.Status = status
	if returnedAt != nil {
		v := *returnedAt
		t.ReturnedAt = &v
	}
	t.UpdatedAt = time.Now()
	return cloneTransaction(t), nil
}

func (r *transactionRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, t := range r.s.txs {
		if t.Status == domain.TxActive && t.DueDate != nil && t.DueDate.Before(now) {
			t.Status = domain.TxOverdue
			t.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type billRepo struct {
	s *Store
}

func (r *billRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bill, ok := r.s.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
	}
	return cloneBill(bill), nil
}

func (r *billRepo) List(ctx context.Context, limit, offset int) ([]*domain.Bill, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bills := make([]*domain.Bill, 0, len(r.s.bills))
	for _, b := range r.s.bills {
		bills = append(bills, cloneBill(b))
	}
	sort.Slice(bills, func(i, j int) bool {
		return bills[i].CreatedAt.After(bills[j].CreatedAt)
	})

	total := int64(len(bills))
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(bills) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(bills) {
		end = len(bills)
	}
	return bills[offset:end], total, nil
}

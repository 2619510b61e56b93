package savings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
)

func (s *Service) AdminList(ctx context.Context, page domain.Page) (domain.Paginated[domain.SavingsAccount], error) {
	accounts, total, err := s.savings.ListAll(ctx, page)
	if err != nil {
		return domain.Paginated[domain.SavingsAccount]{}, fmt.Errorf("AdminList: %w", err)
	}
	return domain.NewPaginated(accounts, total, page), nil
}

func (s *Service) AdminListForUser(ctx context.Context, userID uuid.UUID) ([]domain.SavingsAccount, error) {
	accounts, err := s.savings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("AdminListForUser: %w", err)
	}
	return accounts, nil
}

// AdminDelete removes any user's empty savings account and records who did it.
func (s *Service) AdminDelete(ctx context.Context, adminID, savingsID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AdminDelete: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.savings.GetForUpdate(ctx, tx, savingsID)
	if err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}
	if err := acct.CanDelete(); err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}
	if err := s.savings.Delete(ctx, tx, acct.ID, acct.Version); err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}

	meta, err := json.Marshal(map[string]any{
		"title":      acct.Title,
		"amount":     acct.SavedAmount,
		"target":     acct.TargetAmount,
		"interest":   acct.TotalInterestAccrued,
		"status":     acct.Status,
		"start_date": acct.StartDate,
	})
	if err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}
	owner := acct.UserID
	activity := &domain.Activity{
		ID:           uuid.New(),
		AdminID:      adminID,
		Action:       domain.ActivitySavingsDelete,
		TargetUserID: &owner,
		Metadata:     meta,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.activities.Create(ctx, tx, activity); err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("AdminDelete: commit: %w", err)
	}

	logging.FromContext(ctx).Info("savings account deleted by admin",
		"savings_id", acct.ID,
		"admin_id", adminID,
		"user_id", acct.UserID,
	)
	return nil
}

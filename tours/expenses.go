package tours

import (
	"context"
	"errors"
	"fmt"

	"tourtab/structs"
	"tourtab/utils"
)

// MaxExpensePhotos caps how many photo references one expense may carry.
const MaxExpensePhotos = 5

type ExpenseInput struct {
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Notes       string  `json:"notes"`
}

// AddExpense attaches an expense to the caller's active tour. With no active
// tour there is nothing to attach to and the call fails.
func (s *Service) AddExpense(ctx context.Context, userID string, in ExpenseInput, photos []structs.PhotoRef) (*structs.Expense, error) {
	tour, err := s.store.ActiveTour(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Date == "" || in.Description == "" || in.Category == "" {
		return nil, fmt.Errorf("%w: date, description, category and amount are required", ErrValidation)
	}
	if !structs.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	if len(photos) > MaxExpensePhotos {
		return nil, fmt.Errorf("%w: at most %d photos per expense", ErrValidation, MaxExpensePhotos)
	}
	if photos == nil {
		photos = []structs.PhotoRef{}
	}

	expense := &structs.Expense{
		ExpenseID:   utils.GetUUID(),
		BudgetID:    tour.TourID,
		Date:        in.Date,
		Time:        in.Time,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
		Photos:      photos,
		Notes:       in.Notes,
		CreatedAt:   s.now(),
	}
	if err := s.store.InsertExpense(ctx, expense); err != nil {
		return nil, err
	}
	if err := s.store.PushExpense(ctx, tour.TourID, expense.ExpenseID); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense authorizes through the owning tour, removes the photos from
// the media host best-effort, then drops the record and its back-reference.
func (s *Service) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	expense, err := s.store.ExpenseByID(ctx, expenseID)
	if err != nil {
		return err
	}

	tour, err := s.store.TourByID(ctx, expense.BudgetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if tour.UserID != userID {
		return ErrForbidden
	}

	s.deletePhotos(ctx, expense.Photos)

	if err := s.store.DeleteExpenseRecord(ctx, expenseID); err != nil {
		return err
	}
	return s.store.PullExpense(ctx, expense.BudgetID, expenseID)
}

// ExpensesByTour returns all expenses referencing the tour. Ownership is the
// caller's concern; authorization happens at the tour level.
func (s *Service) ExpensesByTour(ctx context.Context, tourID string) ([]structs.Expense, error) {
	return s.store.ExpensesByTour(ctx, tourID)
}

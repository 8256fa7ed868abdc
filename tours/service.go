package tours

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tourtab/globals"
	"tourtab/media"
	"tourtab/structs"
	"tourtab/utils"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

// Service implements the tour and expense operations over a Store and the
// external media host.
type Service struct {
	store Store
	media media.Store
	now   func() time.Time
}

func NewService(store Store, m media.Store) *Service {
	return &Service{store: store, media: m, now: time.Now}
}

type TourInput struct {
	TourName     string  `json:"tourName"`
	Destination  string  `json:"destination"`
	NumberOfDays int     `json:"numberOfDays"`
	TotalBudget  float64 `json:"totalBudget"`
	Currency     string  `json:"currency"`
}

// CreateTour deactivates every other tour the user owns before inserting the
// new one, so the new tour is the single active one.
func (s *Service) CreateTour(ctx context.Context, userID string, in TourInput, cover *structs.PhotoRef) (*structs.Tour, error) {
	if in.TourName == "" {
		return nil, fmt.Errorf("%w: tour name, days, and budget are required", ErrValidation)
	}
	if in.NumberOfDays < 1 {
		return nil, fmt.Errorf("%w: number of days must be at least 1", ErrValidation)
	}
	if in.TotalBudget < 0 {
		return nil, fmt.Errorf("%w: total budget must not be negative", ErrValidation)
	}
	if in.Currency == "" {
		in.Currency = globals.DefaultCurrency
	}

	if err := s.store.DeactivateAll(ctx, userID); err != nil {
		return nil, err
	}

	tour := &structs.Tour{
		TourID:       utils.GetUUID(),
		UserID:       userID,
		TourName:     in.TourName,
		Destination:  in.Destination,
		NumberOfDays: in.NumberOfDays,
		TotalBudget:  in.TotalBudget,
		Currency:     in.Currency,
		Status:       true,
		ExpenseIDs:   []string{},
		CoverPhoto:   cover,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertTour(ctx, tour); err != nil {
		return nil, err
	}
	tour.Expenses = []structs.Expense{}
	return tour, nil
}

// ListTours returns the user's tours, newest first, expenses resolved.
func (s *Service) ListTours(ctx context.Context, userID string) ([]structs.Tour, error) {
	tours, err := s.store.ToursByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range tours {
		if err := s.resolveExpenses(ctx, &tours[i]); err != nil {
			return nil, err
		}
	}
	return tours, nil
}

// GetActiveTour is the lookup nearly every write depends on.
func (s *Service) GetActiveTour(ctx context.Context, userID string) (*structs.Tour, error) {
	tour, err := s.store.ActiveTour(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.resolveExpenses(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *Service) GetTour(ctx context.Context, tourID string) (*structs.Tour, error) {
	tour, err := s.store.TourByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if err := s.resolveExpenses(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

// ActivateTour switches the user's single active tour to the named one.
// Calling it on the already-active tour is a no-op that leaves it active.
func (s *Service) ActivateTour(ctx context.Context, userID, tourID string) (*structs.Tour, error) {
	if _, err := s.store.TourOwnedBy(ctx, tourID, userID); err != nil {
		return nil, err
	}
	if err := s.store.DeactivateAll(ctx, userID); err != nil {
		return nil, err
	}
	matched, err := s.store.SetActive(ctx, userID, tourID)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNotFound
	}
	return s.GetTour(ctx, tourID)
}

// DeleteTour cascades: photos on the external host are removed best-effort,
// local records are authoritative. A failed remote delete is logged and the
// cascade continues; a failed local delete aborts it.
func (s *Service) DeleteTour(ctx context.Context, userID, tourID string) error {
	tour, err := s.store.TourOwnedBy(ctx, tourID, userID)
	if err != nil {
		return err
	}

	for _, expenseID := range tour.ExpenseIDs {
		expense, err := s.store.ExpenseByID(ctx, expenseID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		s.deletePhotos(ctx, expense.Photos)
		if err := s.store.DeleteExpenseRecord(ctx, expenseID); err != nil {
			return err
		}
	}

	if tour.CoverPhoto != nil && tour.CoverPhoto.PublicID != "" {
		if err := s.media.Delete(ctx, tour.CoverPhoto.PublicID); err != nil {
			log.Printf("Failed to delete cover photo %s: %v", tour.CoverPhoto.PublicID, err)
		}
	}

	return s.store.DeleteTourRecord(ctx, tourID)
}

func (s *Service) deletePhotos(ctx context.Context, photos []structs.PhotoRef) {
	for _, p := range photos {
		if p.PublicID == "" {
			continue
		}
		if err := s.media.Delete(ctx, p.PublicID); err != nil {
			log.Printf("Failed to delete photo %s: %v", p.PublicID, err)
		}
	}
}

func (s *Service) resolveExpenses(ctx context.Context, tour *structs.Tour) error {
	expenses, err := s.store.ExpensesByTour(ctx, tour.TourID)
	if err != nil {
		return err
	}
	tour.Expenses = expenses
	return nil
}

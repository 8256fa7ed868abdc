package tours

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"tourtab/structs"
)

// fakeStore is an in-memory Store for exercising the service without Mongo.
type fakeStore struct {
	mu       sync.Mutex
	tours    map[string]*structs.Tour
	expenses map[string]*structs.Expense
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tours:    map[string]*structs.Tour{},
		expenses: map[string]*structs.Expense{},
	}
}

func (f *fakeStore) InsertTour(_ context.Context, t *structs.Tour) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tours[t.TourID] = &cp
	return nil
}

func (f *fakeStore) TourByID(_ context.Context, tourID string) (*structs.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tours[tourID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) TourOwnedBy(_ context.Context, tourID, userID string) (*structs.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tours[tourID]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) ToursByUser(_ context.Context, userID string) ([]structs.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []structs.Tour{}
	for _, t := range f.tours {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ActiveTour(_ context.Context, userID string) (*structs.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tours {
		if t.UserID == userID && t.Status {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) DeactivateAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tours {
		if t.UserID == userID {
			t.Status = false
		}
	}
	return nil
}

func (f *fakeStore) SetActive(_ context.Context, userID, tourID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tours[tourID]
	if !ok || t.UserID != userID {
		return false, nil
	}
	t.Status = true
	return true, nil
}

func (f *fakeStore) DeleteTourRecord(_ context.Context, tourID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tours, tourID)
	return nil
}

func (f *fakeStore) InsertExpense(_ context.Context, e *structs.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.expenses[e.ExpenseID] = &cp
	return nil
}

func (f *fakeStore) ExpenseByID(_ context.Context, expenseID string) (*structs.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[expenseID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) ExpensesByTour(_ context.Context, tourID string) ([]structs.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []structs.Expense{}
	for _, e := range f.expenses {
		if e.BudgetID == tourID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteExpenseRecord(_ context.Context, expenseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.expenses, expenseID)
	return nil
}

func (f *fakeStore) PushExpense(_ context.Context, tourID, expenseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tours[tourID]; ok {
		t.ExpenseIDs = append(t.ExpenseIDs, expenseID)
	}
	return nil
}

func (f *fakeStore) PullExpense(_ context.Context, tourID, expenseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tours[tourID]
	if !ok {
		return nil
	}
	kept := t.ExpenseIDs[:0]
	for _, id := range t.ExpenseIDs {
		if id != expenseID {
			kept = append(kept, id)
		}
	}
	t.ExpenseIDs = kept
	return nil
}

// fakeMedia records deletes and can be made to fail them.
type fakeMedia struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (f *fakeMedia) Upload(_ context.Context, _ io.Reader, _ string) (structs.PhotoRef, error) {
	return structs.PhotoRef{URL: "https://cdn.example/x.jpg", PublicID: "x"}, nil
}

func (f *fakeMedia) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return f.deleteErr
}

func newTestService() (*Service, *fakeStore, *fakeMedia) {
	store := newFakeStore()
	media := &fakeMedia{}
	svc := NewService(store, media)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc, store, media
}

func validTour(name string) TourInput {
	return TourInput{TourName: name, Destination: "Lisbon", NumberOfDays: 5, TotalBudget: 1000}
}

func validExpense(amount float64) ExpenseInput {
	return ExpenseInput{Date: "2025-03-02", Description: "lunch", Category: "Food", Amount: amount}
}

func activeCount(t *testing.T, store *fakeStore, userID string) int {
	t.Helper()
	n := 0
	for _, tour := range store.tours {
		if tour.UserID == userID && tour.Status {
			n++
		}
	}
	return n
}

func TestCreateTourDeactivatesPrevious(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if !a.Status {
		t.Fatal("first tour should be active")
	}

	b, err := svc.CreateTour(ctx, "u1", validTour("Bali"), nil)
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if got := activeCount(t, store, "u1"); got != 1 {
		t.Fatalf("active tours = %d, want 1", got)
	}
	if !store.tours[b.TourID].Status {
		t.Fatal("newest tour should be the active one")
	}
	if store.tours[a.TourID].Status {
		t.Fatal("older tour should have been deactivated")
	}
}

func TestCreateTourValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   TourInput
	}{
		{"missing name", TourInput{NumberOfDays: 3, TotalBudget: 100}},
		{"zero days", TourInput{TourName: "x", NumberOfDays: 0, TotalBudget: 100}},
		{"negative budget", TourInput{TourName: "x", NumberOfDays: 3, TotalBudget: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateTour(ctx, "u1", tc.in, nil); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestCreateTourDefaultsCurrency(t *testing.T) {
	svc, _, _ := newTestService()

	tour, err := svc.CreateTour(context.Background(), "u1", validTour("Alps"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tour.Currency == "" {
		t.Fatal("currency should have been defaulted")
	}
}

func TestActivateTourSwitchesActive(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	b, _ := svc.CreateTour(ctx, "u1", validTour("Bali"), nil)

	got, err := svc.ActivateTour(ctx, "u1", a.TourID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !got.Status {
		t.Fatal("activated tour should report Status true")
	}
	if store.tours[b.TourID].Status {
		t.Fatal("previously active tour should be deactivated")
	}
	if activeCount(t, store, "u1") != 1 {
		t.Fatal("exactly one tour should be active")
	}
}

func TestActivateTourIdempotent(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.ActivateTour(ctx, "u1", a.TourID); err != nil {
			t.Fatalf("activate #%d: %v", i+1, err)
		}
	}
	if !store.tours[a.TourID].Status || activeCount(t, store, "u1") != 1 {
		t.Fatal("re-activating the active tour must leave it active")
	}
}

func TestActivateTourNotOwned(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)

	if _, err := svc.ActivateTour(ctx, "u2", a.TourID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddExpenseRequiresActiveTour(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddExpense(context.Background(), "u1", validExpense(10), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddExpenseAttachesToActiveTour(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	b, _ := svc.CreateTour(ctx, "u1", validTour("Bali"), nil)

	expense, err := svc.AddExpense(ctx, "u1", validExpense(42), nil)
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if expense.BudgetID != b.TourID {
		t.Fatalf("expense attached to %s, want active tour %s", expense.BudgetID, b.TourID)
	}
	ids := store.tours[b.TourID].ExpenseIDs
	if len(ids) != 1 || ids[0] != expense.ExpenseID {
		t.Fatalf("tour expense list = %v, want [%s]", ids, expense.ExpenseID)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)

	tooMany := make([]structs.PhotoRef, MaxExpensePhotos+1)

	cases := []struct {
		name   string
		in     ExpenseInput
		photos []structs.PhotoRef
	}{
		{"missing date", ExpenseInput{Description: "x", Category: "Food", Amount: 1}, nil},
		{"missing description", ExpenseInput{Date: "2025-03-02", Category: "Food", Amount: 1}, nil},
		{"unknown category", ExpenseInput{Date: "2025-03-02", Description: "x", Category: "Bribes", Amount: 1}, nil},
		{"negative amount", validExpense(-5), nil},
		{"too many photos", validExpense(5), tooMany},
	}
	for _, tc := range cases {
		if _, err := svc.AddExpense(ctx, "u1", tc.in, tc.photos); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestAddExpenseAtPhotoCap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)

	photos := make([]structs.PhotoRef, MaxExpensePhotos)
	for i := range photos {
		photos[i] = structs.PhotoRef{URL: "u", PublicID: fmt.Sprintf("p%d", i)}
	}
	if _, err := svc.AddExpense(ctx, "u1", validExpense(5), photos); err != nil {
		t.Fatalf("exactly %d photos should be accepted: %v", MaxExpensePhotos, err)
	}
}

func TestDeleteTourCascades(t *testing.T) {
	svc, store, media := newTestService()
	ctx := context.Background()

	cover := &structs.PhotoRef{URL: "u", PublicID: "cover-1"}
	tour, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), cover)

	e1, _ := svc.AddExpense(ctx, "u1", validExpense(10), []structs.PhotoRef{{URL: "u", PublicID: "p1"}, {URL: "u", PublicID: "p2"}})
	e2, _ := svc.AddExpense(ctx, "u1", validExpense(20), []structs.PhotoRef{{URL: "u", PublicID: "p3"}})

	if err := svc.DeleteTour(ctx, "u1", tour.TourID); err != nil {
		t.Fatalf("delete tour: %v", err)
	}

	if _, ok := store.tours[tour.TourID]; ok {
		t.Fatal("tour record should be gone")
	}
	for _, id := range []string{e1.ExpenseID, e2.ExpenseID} {
		if _, ok := store.expenses[id]; ok {
			t.Fatalf("expense %s should be gone", id)
		}
	}

	want := map[string]bool{"p1": true, "p2": true, "p3": true, "cover-1": true}
	for _, id := range media.deleted {
		delete(want, id)
	}
	if len(want) != 0 {
		t.Fatalf("media objects not deleted: %v", want)
	}
}

func TestDeleteTourMediaFailureIsNonFatal(t *testing.T) {
	svc, store, media := newTestService()
	media.deleteErr = errors.New("cdn down")
	ctx := context.Background()

	cover := &structs.PhotoRef{URL: "u", PublicID: "cover-1"}
	tour, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), cover)
	svc.AddExpense(ctx, "u1", validExpense(10), []structs.PhotoRef{{URL: "u", PublicID: "p1"}})

	if err := svc.DeleteTour(ctx, "u1", tour.TourID); err != nil {
		t.Fatalf("delete should succeed despite media errors: %v", err)
	}
	if len(store.tours) != 0 || len(store.expenses) != 0 {
		t.Fatal("local records should be gone even when media deletes fail")
	}
}

func TestDeleteTourNotOwned(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	tour, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)

	if err := svc.DeleteTour(ctx, "u2", tour.TourID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, ok := store.tours[tour.TourID]; !ok {
		t.Fatal("tour must survive a delete by a non-owner")
	}
}

func TestDeleteTourDoesNotPromoteAnother(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	b, _ := svc.CreateTour(ctx, "u1", validTour("Bali"), nil)

	if err := svc.DeleteTour(ctx, "u1", b.TourID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if activeCount(t, store, "u1") != 0 {
		t.Fatal("deleting the active tour must leave the user with no active tour")
	}
	if _, err := svc.GetActiveTour(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	svc, store, media := newTestService()
	ctx := context.Background()

	tour, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	expense, _ := svc.AddExpense(ctx, "u1", validExpense(10), []structs.PhotoRef{{URL: "u", PublicID: "p1"}})

	if err := svc.DeleteExpense(ctx, "u1", expense.ExpenseID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if _, ok := store.expenses[expense.ExpenseID]; ok {
		t.Fatal("expense record should be gone")
	}
	if ids := store.tours[tour.TourID].ExpenseIDs; len(ids) != 0 {
		t.Fatalf("tour still references %v", ids)
	}
	if len(media.deleted) != 1 || media.deleted[0] != "p1" {
		t.Fatalf("media deletes = %v, want [p1]", media.deleted)
	}
}

func TestDeleteExpenseForbiddenForNonOwner(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	expense, _ := svc.AddExpense(ctx, "u1", validExpense(10), nil)

	if err := svc.DeleteExpense(ctx, "u2", expense.ExpenseID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, ok := store.expenses[expense.ExpenseID]; !ok {
		t.Fatal("expense must survive a delete by a non-owner")
	}
}

func TestDeleteExpenseMissing(t *testing.T) {
	svc, _, _ := newTestService()

	if err := svc.DeleteExpense(context.Background(), "u1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListToursNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	svc.CreateTour(ctx, "u1", validTour("Bali"), nil)
	svc.CreateTour(ctx, "u2", validTour("Cairo"), nil)

	tours, err := svc.ListTours(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tours) != 2 {
		t.Fatalf("got %d tours, want 2", len(tours))
	}
	if tours[0].TourName != "Bali" || tours[1].TourName != "Alps" {
		t.Fatalf("order = [%s, %s], want newest first", tours[0].TourName, tours[1].TourName)
	}
	if tours[0].Expenses == nil {
		t.Fatal("expenses should be resolved to an empty slice, not nil")
	}
}

func TestGetActiveTourResolvesExpenses(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	svc.AddExpense(ctx, "u1", validExpense(10), nil)
	svc.AddExpense(ctx, "u1", validExpense(20), nil)

	tour, err := svc.GetActiveTour(ctx, "u1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if len(tour.Expenses) != 2 {
		t.Fatalf("resolved %d expenses, want 2", len(tour.Expenses))
	}
}

// End-to-end walk through the lifecycle a client actually drives.
func TestTourLifecycle(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTour(ctx, "u1", validTour("Alps"), nil)
	b, _ := svc.CreateTour(ctx, "u1", validTour("Bali"), nil)

	// expense lands on B, the active tour
	e, _ := svc.AddExpense(ctx, "u1", validExpense(99), nil)
	if e.BudgetID != b.TourID {
		t.Fatalf("expense on %s, want %s", e.BudgetID, b.TourID)
	}

	// switch back to A; next expense lands there
	if _, err := svc.ActivateTour(ctx, "u1", a.TourID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	e2, _ := svc.AddExpense(ctx, "u1", validExpense(7), nil)
	if e2.BudgetID != a.TourID {
		t.Fatalf("expense on %s, want %s", e2.BudgetID, a.TourID)
	}

	// deleting B removes its expense but not A's
	if err := svc.DeleteTour(ctx, "u1", b.TourID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.expenses[e.ExpenseID]; ok {
		t.Fatal("expense of deleted tour should be gone")
	}
	if _, ok := store.expenses[e2.ExpenseID]; !ok {
		t.Fatal("expense of surviving tour should remain")
	}
}

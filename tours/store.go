package tours

import (
	"context"

	"tourtab/db"
	"tourtab/structs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists tours and expenses. The tour document carries a
// denormalized ordered list of its expense ids; PushExpense/PullExpense keep
// that list in step with the expense collection.
type Store interface {
	InsertTour(ctx context.Context, t *structs.Tour) error
	TourByID(ctx context.Context, tourID string) (*structs.Tour, error)
	TourOwnedBy(ctx context.Context, tourID, userID string) (*structs.Tour, error)
	ToursByUser(ctx context.Context, userID string) ([]structs.Tour, error)
	ActiveTour(ctx context.Context, userID string) (*structs.Tour, error)
	DeactivateAll(ctx context.Context, userID string) error
	SetActive(ctx context.Context, userID, tourID string) (bool, error)
	DeleteTourRecord(ctx context.Context, tourID string) error

	InsertExpense(ctx context.Context, e *structs.Expense) error
	ExpenseByID(ctx context.Context, expenseID string) (*structs.Expense, error)
	ExpensesByTour(ctx context.Context, tourID string) ([]structs.Expense, error)
	DeleteExpenseRecord(ctx context.Context, expenseID string) error
	PushExpense(ctx context.Context, tourID, expenseID string) error
	PullExpense(ctx context.Context, tourID, expenseID string) error
}

type mongoStore struct{}

// NewMongoStore returns a Store backed by the shared Mongo collections.
func NewMongoStore() Store {
	return mongoStore{}
}

func (mongoStore) InsertTour(ctx context.Context, t *structs.Tour) error {
	_, err := db.TourCollection.InsertOne(ctx, t)
	return err
}

func (mongoStore) TourByID(ctx context.Context, tourID string) (*structs.Tour, error) {
	return findTour(ctx, bson.M{"tourid": tourID})
}

func (mongoStore) TourOwnedBy(ctx context.Context, tourID, userID string) (*structs.Tour, error) {
	return findTour(ctx, bson.M{"tourid": tourID, "userid": userID})
}

func (mongoStore) ActiveTour(ctx context.Context, userID string) (*structs.Tour, error) {
	return findTour(ctx, bson.M{"userid": userID, "status": true})
}

func findTour(ctx context.Context, filter bson.M) (*structs.Tour, error) {
	var t structs.Tour
	err := db.TourCollection.FindOne(ctx, filter).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (mongoStore) ToursByUser(ctx context.Context, userID string) ([]structs.Tour, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := db.TourCollection.Find(ctx, bson.M{"userid": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tours := []structs.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

func (mongoStore) DeactivateAll(ctx context.Context, userID string) error {
	_, err := db.TourCollection.UpdateMany(ctx,
		bson.M{"userid": userID, "status": true},
		bson.M{"$set": bson.M{"status": false}},
	)
	return err
}

func (mongoStore) SetActive(ctx context.Context, userID, tourID string) (bool, error) {
	res, err := db.TourCollection.UpdateOne(ctx,
		bson.M{"tourid": tourID, "userid": userID},
		bson.M{"$set": bson.M{"status": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (mongoStore) DeleteTourRecord(ctx context.Context, tourID string) error {
	_, err := db.TourCollection.DeleteOne(ctx, bson.M{"tourid": tourID})
	return err
}

func (mongoStore) InsertExpense(ctx context.Context, e *structs.Expense) error {
	_, err := db.ExpenseCollection.InsertOne(ctx, e)
	return err
}

func (mongoStore) ExpenseByID(ctx context.Context, expenseID string) (*structs.Expense, error) {
	var e structs.Expense
	err := db.ExpenseCollection.FindOne(ctx, bson.M{"expenseid": expenseID}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (mongoStore) ExpensesByTour(ctx context.Context, tourID string) ([]structs.Expense, error) {
	cursor, err := db.ExpenseCollection.Find(ctx, bson.M{"budgetId": tourID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	expenses := []structs.Expense{}
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (mongoStore) DeleteExpenseRecord(ctx context.Context, expenseID string) error {
	_, err := db.ExpenseCollection.DeleteOne(ctx, bson.M{"expenseid": expenseID})
	return err
}

func (mongoStore) PushExpense(ctx context.Context, tourID, expenseID string) error {
	_, err := db.TourCollection.UpdateOne(ctx,
		bson.M{"tourid": tourID},
		bson.M{"$push": bson.M{"expenses": expenseID}},
	)
	return err
}

func (mongoStore) PullExpense(ctx context.Context, tourID, expenseID string) error {
	_, err := db.TourCollection.UpdateOne(ctx,
		bson.M{"tourid": tourID},
		bson.M{"$pull": bson.M{"expenses": expenseID}},
	)
	return err
}

package auth

import (
	"context"
	"errors"

	"tourtab/db"
	"tourtab/structs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned by Store lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store persists users and one-time reset codes.
type Store interface {
	UserByEmail(ctx context.Context, email string) (*structs.User, error)
	InsertUser(ctx context.Context, u *structs.User) error
	UpdatePassword(ctx context.Context, email, hash string) error

	// ReplaceOTP removes every outstanding code for the email before
	// storing the new one, so only the latest code is ever valid.
	ReplaceOTP(ctx context.Context, rec structs.OTP) error
	OTPByEmailCode(ctx context.Context, email, code string) (*structs.OTP, error)
	DeleteOTPs(ctx context.Context, email string) error
}

type mongoStore struct{}

// NewMongoStore returns a Store backed by the shared Mongo collections.
func NewMongoStore() Store {
	return mongoStore{}
}

func (mongoStore) UserByEmail(ctx context.Context, email string) (*structs.User, error) {
	var u structs.User
	err := db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (mongoStore) InsertUser(ctx context.Context, u *structs.User) error {
	_, err := db.UserCollection.InsertOne(ctx, u)
	return err
}

func (mongoStore) UpdatePassword(ctx context.Context, email, hash string) error {
	_, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"password": hash}},
	)
	return err
}

func (mongoStore) ReplaceOTP(ctx context.Context, rec structs.OTP) error {
	if _, err := db.OTPCollection.DeleteMany(ctx, bson.M{"email": rec.Email}); err != nil {
		return err
	}
	_, err := db.OTPCollection.InsertOne(ctx, rec)
	return err
}

func (mongoStore) OTPByEmailCode(ctx context.Context, email, code string) (*structs.OTP, error) {
	var rec structs.OTP
	err := db.OTPCollection.FindOne(ctx, bson.M{"email": email, "otp": code}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (mongoStore) DeleteOTPs(ctx context.Context, email string) error {
	_, err := db.OTPCollection.DeleteMany(ctx, bson.M{"email": email})
	return err
}

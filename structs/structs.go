package structs

import "time"

// PhotoRef points at an object in the external media store. URL is the
// public location, PublicID the handle needed to delete it again.
type PhotoRef struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"publicId" bson:"publicId"`
}

type User struct {
	UserID    string    `json:"userid" bson:"userid"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Password  string    `json:"-" bson:"password"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Tour is a trip budget. At most one tour per user has Status == true; that
// tour is the one new expenses attach to.
type Tour struct {
	TourID       string    `json:"tourid" bson:"tourid"`
	UserID       string    `json:"userid" bson:"userid"`
	TourName     string    `json:"tourName" bson:"tourName"`
	Destination  string    `json:"destination" bson:"destination"`
	NumberOfDays int       `json:"numberOfDays" bson:"numberOfDays"`
	TotalBudget  float64   `json:"totalBudget" bson:"totalBudget"`
	Currency     string    `json:"currency" bson:"currency"`
	Status       bool      `json:"status" bson:"status"`
	ExpenseIDs   []string  `json:"-" bson:"expenses"`
	CoverPhoto   *PhotoRef `json:"coverPhoto,omitempty" bson:"coverPhoto,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`

	// Resolved on read, never stored.
	Expenses []Expense `json:"expenses" bson:"-"`
}

type Expense struct {
	ExpenseID   string     `json:"expenseid" bson:"expenseid"`
	BudgetID    string     `json:"budgetId" bson:"budgetId"`
	Date        string     `json:"date" bson:"date"`
	Time        string     `json:"time" bson:"time"`
	Description string     `json:"description" bson:"description"`
	Category    string     `json:"category" bson:"category"`
	Amount      float64    `json:"amount" bson:"amount"`
	Photos      []PhotoRef `json:"photos" bson:"photos"`
	Notes       string     `json:"notes" bson:"notes"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// OTP is a one-time password-reset code. Expiry is checked lazily at
// verification time; a new code supersedes all prior ones for the email.
type OTP struct {
	Email     string    `json:"email" bson:"email"`
	Code      string    `json:"otp" bson:"otp"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Expense categories form a closed set; anything else is rejected on write.
var Categories = []string{
	"Food",
	"Transport",
	"Accommodation",
	"Entertainment",
	"Shopping",
	"Health",
	"Education",
	"Others",
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

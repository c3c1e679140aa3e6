package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/mosque-donations/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInvalidReference indicates a foreign key (mosque, purpose, user) that
// does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")

// UserStore captures persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// ReferenceStore serves the read-only mosque and purpose lookups.
type ReferenceStore interface {
	ListMosques(ctx context.Context) ([]models.Mosque, error)
	MosqueExists(ctx context.Context, id int64) (bool, error)
	ListPurposes(ctx context.Context) ([]models.Purpose, error)
}

// DonationStore persists donations of every kind. Each method is a single
// statement against one kind's table.
type DonationStore interface {
	// InsertDonation stores d and returns it with ID and CreatedAt set.
	InsertDonation(ctx context.Context, d models.Donation) (models.Donation, error)
	// DeleteOwned removes the donation only if ownerID owns it. A missing
	// row and a row owned by someone else both yield ErrNotFound.
	DeleteOwned(ctx context.Context, kind models.Kind, id, ownerID int64) error
	// ListByUser returns the owner's Friday donations, newest donation date first.
	ListByUser(ctx context.Context, ownerID int64) ([]models.Donation, error)
	// SumAndCount totals one kind for one owner; no rows is a zero Totals.
	SumAndCount(ctx context.Context, kind models.Kind, ownerID int64) (models.Totals, error)
	// WindowedSum totals a mosque's Friday donations dated in [from, to).
	WindowedSum(ctx context.Context, mosqueID int64, from, to time.Time) (models.Money, error)
}

// Store bundles every persistence concern the server needs.
type Store interface {
	UserStore
	ReferenceStore
	DonationStore
	Close()
}

// Package donations records and removes donations on behalf of their owner.
package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/storage"
)

var (
	// ErrNotFound covers both a missing donation and one owned by someone else.
	ErrNotFound = errors.New("donation not found or not owned")
	// ErrNoDonations means the user has not recorded any Friday donations.
	ErrNoDonations = errors.New("no donations found for this user")
)

// minYear bounds annual donations from below.
const minYear = 1900

// CreateInput carries a new donation. PurposeID and DonationDate apply to
// Friday donations, Year to Fitr and Zakat.
type CreateInput struct {
	MosqueID     int64
	UserID       int64
	Amount       models.Money
	PurposeID    int64
	DonationDate string
	Year         int
}

// Service applies validation and ownership rules around the donation store.
type Service struct {
	store storage.DonationStore
	now   func() time.Time
}

// NewService constructs the donation service.
func NewService(store storage.DonationStore) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source used for default dates and year checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates in and inserts it as a donation of kind owned by callerID.
// A UserID in the payload must match the caller.
func (s *Service) Create(ctx context.Context, callerID int64, kind models.Kind, in CreateInput) (models.Donation, error) {
	if _, err := models.ParseKind(string(kind)); err != nil {
		return models.Donation{}, err
	}
	ownerID := in.UserID
	if ownerID == 0 {
		ownerID = callerID
	}
	if err := auth.AuthorizeOwner(callerID, ownerID); err != nil {
		return models.Donation{}, err
	}
	if !in.Amount.Positive() {
		return models.Donation{}, models.Invalid("amount", "amount must be greater than zero")
	}
	if in.MosqueID <= 0 {
		return models.Donation{}, models.Invalid("mosque_id", "mosque is required")
	}

	d := models.Donation{
		Kind:     kind,
		UserID:   ownerID,
		MosqueID: in.MosqueID,
		Amount:   in.Amount,
	}
	if kind == models.KindFriday {
		details, err := s.fridayDetails(in)
		if err != nil {
			return models.Donation{}, err
		}
		d.Friday = &details
	} else {
		if err := s.validateYear(in.Year); err != nil {
			return models.Donation{}, err
		}
		d.Annual = &models.AnnualDetails{Year: in.Year}
	}

	created, err := s.store.InsertDonation(ctx, d)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			return models.Donation{}, models.Invalid("", "mosque or purpose does not exist")
		}
		return models.Donation{}, fmt.Errorf("insert %s donation: %w", kind, err)
	}
	return created, nil
}

// Delete removes a donation owned by callerID. Only Friday donations can be
// deleted.
func (s *Service) Delete(ctx context.Context, callerID int64, kind models.Kind, id int64) error {
	if kind != models.KindFriday {
		return models.Invalid("kind", "only friday donations can be deleted")
	}
	if id <= 0 {
		return models.Invalid("id", "invalid donation id")
	}
	if err := s.store.DeleteOwned(ctx, kind, id, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete donation: %w", err)
	}
	return nil
}

// List returns userID's Friday donations, newest first, after checking that
// the caller is that user.
func (s *Service) List(ctx context.Context, callerID, userID int64) ([]models.Donation, error) {
	if err := auth.AuthorizeOwner(callerID, userID); err != nil {
		return nil, err
	}
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNoDonations
	}
	return list, nil
}

func (s *Service) fridayDetails(in CreateInput) (models.FridayDetails, error) {
	if in.PurposeID <= 0 {
		return models.FridayDetails{}, models.Invalid("purpose_id", "purpose is required")
	}
	date, err := ParseDate(in.DonationDate, s.now())
	if err != nil {
		return models.FridayDetails{}, err
	}
	return models.FridayDetails{PurposeID: in.PurposeID, DonationDate: date}, nil
}

func (s *Service) validateYear(year int) error {
	maxYear := s.now().Year() + 1
	if year < minYear || year > maxYear {
		return models.Invalid("year", fmt.Sprintf("year must be between %d and %d", minYear, maxYear))
	}
	return nil
}

// ParseDate reads a calendar date as YYYY-MM-DD or RFC 3339 and returns it as
// midnight UTC. A blank value means today in now's location.
func ParseDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return civilDate(now), nil
	}
	if t, err := time.Parse(models.DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return civilDate(t), nil
	}
	return time.Time{}, models.Invalid("donation_date", "donation_date must be YYYY-MM-DD")
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

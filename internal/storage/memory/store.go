// Package memory is a process-local Store used by tests and by local runs
// with DATA_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// DefaultPurposes mirrors the purposes seeded by the Postgres migrations.
var DefaultPurposes = []models.Purpose{
	{ID: 1, Name: "Mosque maintenance"},
	{ID: 2, Name: "Humanitarian aid"},
	{ID: 3, Name: "Education"},
	{ID: 4, Name: "Construction"},
	{ID: 5, Name: "General"},
}

// DefaultMosques mirrors the mosques seeded by the Postgres migrations.
var DefaultMosques = []models.Mosque{
	{ID: 1, Name: "Central Mosque", City: "Novi Pazar"},
	{ID: 2, Name: "Altun-alem Mosque", City: "Novi Pazar"},
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[int64]models.User
	mosques   []models.Mosque
	purposes  []models.Purpose
	donations map[models.Kind]map[int64]models.Donation
	nextID    map[string]int64
}

// NewStore returns an empty store with the given reference data.
func NewStore(mosques []models.Mosque, purposes []models.Purpose) *Store {
	s := &Store{
		now:       time.Now,
		users:     make(map[int64]models.User),
		mosques:   append([]models.Mosque(nil), mosques...),
		purposes:  append([]models.Purpose(nil), purposes...),
		donations: make(map[models.Kind]map[int64]models.Donation),
		nextID:    make(map[string]int64),
	}
	for _, kind := range models.Kinds {
		s.donations[kind] = make(map[int64]models.Donation)
	}
	return s
}

// NewSeeded returns a store preloaded with DefaultMosques and DefaultPurposes.
func NewSeeded() *Store {
	return NewStore(DefaultMosques, DefaultPurposes)
}

// WithClock replaces the time source used for CreatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) allocID(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// CreateUser inserts a new user; emails are unique case-insensitively.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.ID = s.allocID("users")
	user.CreatedAt = s.now().UTC()
	user.MosqueName = s.mosqueName(user.MosqueID)
	s.users[user.ID] = user
	return user, nil
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// FindByID fetches a user by id.
func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// ListMosques returns mosques ordered by name.
func (s *Store) ListMosques(_ context.Context) ([]models.Mosque, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append(make([]models.Mosque, 0, len(s.mosques)), s.mosques...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MosqueExists reports whether id names a known mosque.
func (s *Store) MosqueExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mosques {
		if m.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// ListPurposes returns purposes ordered by id.
func (s *Store) ListPurposes(_ context.Context) ([]models.Purpose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append(make([]models.Purpose, 0, len(s.purposes)), s.purposes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InsertDonation stores d under its kind.
func (s *Store) InsertDonation(_ context.Context, d models.Donation) (models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.donations[d.Kind]
	if !ok {
		return models.Donation{}, models.Invalid("kind", "unknown donation kind")
	}
	if _, ok := s.users[d.UserID]; !ok || s.mosqueName(d.MosqueID) == "" {
		return models.Donation{}, storage.ErrInvalidReference
	}
	if d.Friday != nil && !s.purposeExists(d.Friday.PurposeID) {
		return models.Donation{}, storage.ErrInvalidReference
	}
	d.ID = s.allocID(string(d.Kind))
	d.CreatedAt = s.now().UTC()
	if d.Friday != nil {
		details := *d.Friday
		details.PurposeName = ""
		d.Friday = &details
	}
	if d.Annual != nil {
		details := *d.Annual
		d.Annual = &details
	}
	table[d.ID] = d
	return s.withPurpose(d), nil
}

// DeleteOwned removes the donation only when both id and owner match.
func (s *Store) DeleteOwned(_ context.Context, kind models.Kind, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.donations[kind]
	if !ok {
		return storage.ErrNotFound
	}
	d, ok := table[id]
	if !ok || d.UserID != ownerID {
		return storage.ErrNotFound
	}
	delete(table, id)
	return nil
}

// ListByUser returns the owner's Friday donations, newest date first.
func (s *Store) ListByUser(_ context.Context, ownerID int64) ([]models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Donation, 0)
	for _, d := range s.donations[models.KindFriday] {
		if d.UserID == ownerID {
			out = append(out, s.withPurpose(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Friday.DonationDate, out[j].Friday.DonationDate
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// SumAndCount totals one kind for one owner.
func (s *Store) SumAndCount(_ context.Context, kind models.Kind, ownerID int64) (models.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var totals models.Totals
	for _, d := range s.donations[kind] {
		if d.UserID == ownerID {
			totals.Total += d.Amount
			totals.Count++
		}
	}
	return totals, nil
}

// WindowedSum totals a mosque's Friday donations dated in [from, to).
func (s *Store) WindowedSum(_ context.Context, mosqueID int64, from, to time.Time) (models.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total models.Money
	for _, d := range s.donations[models.KindFriday] {
		if d.MosqueID != mosqueID || d.Friday == nil {
			continue
		}
		date := d.Friday.DonationDate
		if !date.Before(from) && date.Before(to) {
			total += d.Amount
		}
	}
	return total, nil
}

func (s *Store) withPurpose(d models.Donation) models.Donation {
	if d.Friday == nil {
		return d
	}
	details := *d.Friday
	for _, p := range s.purposes {
		if p.ID == details.PurposeID {
			details.PurposeName = p.Name
			break
		}
	}
	d.Friday = &details
	return d
}

func (s *Store) purposeExists(id int64) bool {
	for _, p := range s.purposes {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) mosqueName(id int64) string {
	for _, m := range s.mosques {
		if m.ID == id {
			return m.Name
		}
	}
	return ""
}

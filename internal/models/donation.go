package models

import "time"

// Kind discriminates the three donation variants.
type Kind string

const (
	KindFriday Kind = "friday"
	KindFitr   Kind = "fitr"
	KindZakat  Kind = "zakat"
)

// Kinds lists every donation kind in summary order.
var Kinds = []Kind{KindFriday, KindFitr, KindZakat}

// ParseKind validates a kind name taken from a path or payload.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindFriday, KindFitr, KindZakat:
		return Kind(name), nil
	default:
		return "", Invalid("kind", "kind must be one of friday, fitr, zakat")
	}
}

// Annual reports whether the kind is a yearly obligation carrying a year.
func (k Kind) Annual() bool {
	return k == KindFitr || k == KindZakat
}

// DateLayout is the calendar-date format used for Friday donation dates.
const DateLayout = "2006-01-02"

// FridayDetails is the payload specific to recurring donations.
type FridayDetails struct {
	PurposeID    int64     `json:"purpose_id"`
	PurposeName  string    `json:"purpose_name,omitempty"`
	DonationDate time.Time `json:"donation_date"`
}

// AnnualDetails is the payload specific to Fitr and Zakat donations.
type AnnualDetails struct {
	Year int `json:"year"`
}

// Donation is a single contribution. Exactly one of Friday or Annual is set,
// matching Kind.
type Donation struct {
	ID        int64          `json:"id"`
	Kind      Kind           `json:"kind"`
	UserID    int64          `json:"user_id"`
	MosqueID  int64          `json:"mosque_id"`
	Amount    Money          `json:"amount"`
	CreatedAt time.Time      `json:"created_at"`
	Friday    *FridayDetails `json:"friday,omitempty"`
	Annual    *AnnualDetails `json:"annual,omitempty"`
}

// Totals is a sum and row count over one donation kind.
type Totals struct {
	Total Money `json:"total"`
	Count int64 `json:"count"`
}

// Summary holds per-kind totals for one user.
type Summary struct {
	Friday Totals `json:"friday"`
	Fitr   Totals `json:"fitr"`
	Zakat  Totals `json:"zakat"`
}

// Set stores totals under the field for kind.
func (s *Summary) Set(kind Kind, t Totals) {
	switch kind {
	case KindFriday:
		s.Friday = t
	case KindFitr:
		s.Fitr = t
	case KindZakat:
		s.Zakat = t
	}
}

// Grand returns the combined totals across all kinds.
func (s Summary) Grand() Totals {
	return Totals{
		Total: s.Friday.Total + s.Fitr.Total + s.Zakat.Total,
		Count: s.Friday.Count + s.Fitr.Count + s.Zakat.Count,
	}
}

// WindowStats are mosque-wide Friday totals for the current calendar windows.
type WindowStats struct {
	Weekly  Money `json:"weekly"`
	Monthly Money `json:"monthly"`
	Yearly  Money `json:"yearly"`
}

// AnnualCounts reports how many yearly obligations a user has recorded.
type AnnualCounts struct {
	Fitr  int64 `json:"fitr"`
	Zakat int64 `json:"zakat"`
}

package models

// Mosque is read-only reference data.
type Mosque struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Address string `json:"address,omitempty"`
}

// Purpose labels what a Friday donation is collected for.
type Purpose struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

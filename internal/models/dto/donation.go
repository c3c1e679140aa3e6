package dto

import "github.com/hongminglow/mosque-donations/internal/models"

// CreateDonationRequest is the body for POST /donation/{kind}. Friday
// donations use PurposeID and DonationDate; Fitr and Zakat use Year.
type CreateDonationRequest struct {
	MosqueID     int64        `json:"mosque_id"`
	UserID       int64        `json:"user_id"`
	Amount       models.Money `json:"amount"`
	PurposeID    int64        `json:"purpose_id"`
	DonationDate string       `json:"donation_date"`
	Year         int          `json:"year"`
}

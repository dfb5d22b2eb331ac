package domain

import "time"

type QRStatus string

const (
	QRStatusValid   QRStatus = "VALID"
	QRStatusUsed    QRStatus = "USED"
	QRStatusExpired QRStatus = "EXPIRED"
)

func (s QRStatus) IsTerminal() bool {
	return s == QRStatusUsed || s == QRStatusExpired
}

func (s QRStatus) String() string {
	return string(s)
}

const DefaultVerifier = "gate_staff"

// QrReceipt is the exit credential for a paid transaction.
// Status is the single source of truth for whether it can still be redeemed.
type QrReceipt struct {
	ID            string     `bson:"_id"`
	TransactionID string     `bson:"transaction_id"`
	QRToken       string     `bson:"qr_token"`
	QRImageBase64 string     `bson:"qr_image_base64"`
	Payload       string     `bson:"payload"`
	Status        QRStatus   `bson:"status"`
	ExpiresAt     time.Time  `bson:"expires_at"`
	VerifiedAt    *time.Time `bson:"verified_at,omitempty"`
	VerifiedBy    string     `bson:"verified_by,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func (r *QrReceipt) IsVerified() bool {
	return r.Status == QRStatusUsed
}

// ExpiredAt reports whether the receipt is past its expiry at the given instant.
func (r *QrReceipt) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// QRPayload is the JSON document encoded into the QR image and scanned at the gate.
type QRPayload struct {
	TransactionID string    `json:"transactionId"`
	StoreID       string    `json:"storeId"`
	ItemCount     int       `json:"itemCount"`
	Timestamp     time.Time `json:"timestamp"`
	Verified      bool      `json:"verified"`
	Token         string    `json:"token,omitempty"`
}

package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation     = errors.New("invalid request")
	ErrEmptyItems     = fmt.Errorf("%w: no items to checkout", ErrValidation)
	ErrInvalidQty     = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrPriceMismatch  = fmt.Errorf("%w: price does not match catalog", ErrValidation)
	ErrTotalMismatch  = fmt.Errorf("%w: total does not match catalog prices", ErrValidation)
	ErrWrongStore     = fmt.Errorf("%w: product does not belong to this store", ErrValidation)
	ErrMissingPayment = fmt.Errorf("%w: transaction ID and payment intent ID are required", ErrValidation)

	ErrStoreNotFound       = errors.New("store not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrCartNotFound        = errors.New("cart not found")
	ErrItemNotFound        = errors.New("item not found in cart")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrReceiptNotFound     = errors.New("no QR receipt issued for this transaction")

	ErrAlreadyPaid      = errors.New("transaction already paid")
	ErrTransactionState = errors.New("transaction is not pending")
	ErrNotPaid          = errors.New("QR code only available for paid transactions")

	ErrInvalidQRFormat  = errors.New("invalid QR code format")
	ErrInvalidQRContent = errors.New("invalid QR code content")
	ErrQRAlreadyUsed    = errors.New("QR code already used")
	ErrQRExpired        = errors.New("QR code has expired")

	ErrDuplicateBarcode = errors.New("barcode already assigned to another product")
	ErrPaymentGateway   = errors.New("payment gateway error")
)

// AlreadyUsedError carries the audit trail of the first successful scan.
type AlreadyUsedError struct {
	VerifiedAt *time.Time
	VerifiedBy string
}

func (e *AlreadyUsedError) Error() string {
	return ErrQRAlreadyUsed.Error()
}

func (e *AlreadyUsedError) Unwrap() error {
	return ErrQRAlreadyUsed
}

// Kind classifies service errors for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidFormat
	KindInvalidContent
	KindNotFound
	KindAlreadyProcessed
	KindInvalidState
	KindAlreadyUsed
	KindExpired
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInvalidFormat:
		return "invalid_format"
	case KindInvalidContent:
		return "invalid_content"
	case KindNotFound:
		return "not_found"
	case KindAlreadyProcessed:
		return "already_processed"
	case KindInvalidState:
		return "invalid_state"
	case KindAlreadyUsed:
		return "already_used"
	case KindExpired:
		return "expired"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "payment_error"
	default:
		return "internal_error"
	}
}

// KindOf maps err to its Kind. Unrecognised errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidQRFormat):
		return KindInvalidFormat
	case errors.Is(err, ErrInvalidQRContent):
		return KindInvalidContent
	case errors.Is(err, ErrStoreNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrReceiptNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyPaid):
		return KindAlreadyProcessed
	case errors.Is(err, ErrTransactionState), errors.Is(err, ErrNotPaid):
		return KindInvalidState
	case errors.Is(err, ErrQRAlreadyUsed):
		return KindAlreadyUsed
	case errors.Is(err, ErrQRExpired):
		return KindExpired
	case errors.Is(err, ErrDuplicateBarcode):
		return KindConflict
	case errors.Is(err, ErrPaymentGateway):
		return KindUpstream
	default:
		return KindInternal
	}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

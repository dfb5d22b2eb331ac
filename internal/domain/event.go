package domain

const (
	EventTransactionCreated = "transaction.created"
	EventTransactionPaid    = "transaction.paid"
	EventTransactionFailed  = "transaction.failed"
	EventReceiptIssued      = "receipt.issued"
	EventReceiptVerified    = "receipt.verified"
	EventReceiptExpired     = "receipt.expired"
)

package domain

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrPaymentNotFound   = &Error{Code: "PAYMENT_001", Message: "payment not found"}
	ErrDuplicatePayment  = &Error{Code: "PAYMENT_002", Message: "a payment already exists for this subscription"}
	ErrPaymentProcessing = &Error{Code: "PAYMENT_003", Message: "payment processing failed"}
)

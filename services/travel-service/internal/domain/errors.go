package domain

// Error is a business rule violation with a machine-readable code. The
// HTTP layer maps codes to statuses; the core never deals in transport
// statuses.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrTravelNotFound         = &Error{Code: "TRAVEL_001", Message: "travel not found"}
	ErrSubscriptionNotFound   = &Error{Code: "TRAVEL_002", Message: "subscription not found"}
	ErrSubscriptionTooLate    = &Error{Code: "TRAVEL_003", Message: "subscription deadline has passed: departure is less than 3 days away"}
	ErrTravelFull             = &Error{Code: "TRAVEL_004", Message: "travel has no available capacity"}
	ErrDuplicateSubscription  = &Error{Code: "TRAVEL_005", Message: "traveler already has an active subscription for this travel"}
	ErrUnauthorized           = &Error{Code: "TRAVEL_006", Message: "not authorized to perform this action"}
	ErrConcurrentBooking      = &Error{Code: "TRAVEL_007", Message: "concurrent booking conflict, please retry"}
	ErrCancellationNotAllowed = &Error{Code: "TRAVEL_008", Message: "subscription can no longer be cancelled"}

	// Same code as ErrUnauthorized: subscribing to an unpublished travel is
	// treated as an access violation, not a missing resource.
	ErrTravelNotOpen = &Error{Code: "TRAVEL_006", Message: "cannot subscribe to a travel that is not published"}
)

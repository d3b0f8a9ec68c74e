package domain

// Error is a tagged account error; the HTTP layer maps Code to a status.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrUserNotFound       = &Error{Code: "USER_001", Message: "user not found"}
	ErrEmailTaken         = &Error{Code: "USER_002", Message: "email already registered"}
	ErrInvalidCredentials = &Error{Code: "USER_003", Message: "invalid email or password"}
	ErrInvalidRole        = &Error{Code: "USER_004", Message: "invalid role"}
)

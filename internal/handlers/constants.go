package handlers

// User-facing messages shared across handlers
const (
	ErrAuthRequired         = "Authentication required"
	ErrAccessDenied         = "Access denied"
	ErrInternalServerError  = "Internal server error"
	ErrTooManyLoginAttempts = "Too many login attempts, try again later"
	ErrStaffRequired        = "Staff access required"
)

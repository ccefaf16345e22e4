package engine

// UserError represents an error that should be displayed to the user.
// These are not system failures - just invalid input or usage. They are
// delivered as command_error events to the originating connection.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError creates a user-facing error.
func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}

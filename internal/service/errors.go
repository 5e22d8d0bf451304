package service

// ErrorKind classifies policy failures for the HTTP boundary.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindInvalidState
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a typed policy error with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func invalidState(msg string) *Error { return &Error{Kind: KindInvalidState, Message: msg} }
func forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

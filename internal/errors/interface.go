package errors

// ErrorCode identifies an error type across packages. Codes are stable and
// appear in structured logs as error_code.
type ErrorCode string

// Coder is implemented by any error carrying an ErrorCode.
type Coder interface {
	Code() ErrorCode
}

// Error is a coded error with optional message override and attached data
type Error interface {
	error
	Coder
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory creates coded errors
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}

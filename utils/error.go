package utils

// Error is an immutable, string-backed error type that can be declared
// as a constant.
type Error string

func (e Error) Error() string {
	return string(e)
}

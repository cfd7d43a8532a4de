package auth

import "github.com/samber/oops"

// Error codes attached to service errors.
const (
	CodeValidation       = "AUTH_VALIDATION_FAILED"
	CodeEmailTaken       = "AUTH_EMAIL_TAKEN"
	CodeInvalidCreds     = "AUTH_INVALID_CREDENTIALS"
	CodeNoSession        = "AUTH_NO_SESSION"
	CodeStoreUnavailable = "AUTH_STORE_UNAVAILABLE"
)

// MsgInvalidCredentials is shared by the unknown-email and wrong-password paths.
const MsgInvalidCredentials = "wrong email or password"

// HasCode reports whether err is an oops error carrying code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == code
}

func validationError(msg string) error {
	return oops.Code(CodeValidation).Public(msg).Errorf("%s", msg)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCreds).Public(MsgInvalidCredentials).Errorf(MsgInvalidCredentials)
}

func noSession(cause error) error {
	b := oops.Code(CodeNoSession).Public("no active session")
	if cause != nil {
		return b.Wrapf(cause, "no active session")
	}
	return b.Errorf("no active session")
}

func storeUnavailable(operation string, cause error) error {
	return oops.Code(CodeStoreUnavailable).
		Public("internal server error").
		With("operation", operation).
		Wrap(cause)
}

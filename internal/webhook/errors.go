package webhook

import "errors"

var (
	// ErrMissingHeaders is returned when one of the svix-id, svix-timestamp or svix-signature headers is empty.
	ErrMissingHeaders = errors.New("missing svix headers")
	// ErrInvalidSignature is returned when the body and headers were not signed with the webhook secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMapping is returned when a verified event lacks a field the user record requires.
	ErrMapping = errors.New("webhook event mapping failed")
	// ErrEmptySecret is returned by NewVerifier without a signing secret.
	ErrEmptySecret = errors.New("webhook secret cannot be empty")
)

// IsBadRequest reports whether err is one of the errors a delivery can never
// recover from by being retried.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrMissingHeaders) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMapping)
}

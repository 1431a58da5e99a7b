package webhook

import (
	"fmt"

	svix "github.com/svix/svix-webhooks/go"
)

// Verifier checks Svix signatures with the webhook signing secret.
type Verifier struct {
	wh *svix.Webhook
}

// NewVerifier returns a Verifier for a whsec_ prefixed or raw base64 secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create svix webhook: %w", err)
	}

	return &Verifier{wh: wh}, nil
}

// Verify checks body against the headers. The timestamp must be within five
// minutes of now.
func (v *Verifier) Verify(body []byte, h Headers) error {
	if !h.Complete() {
		return ErrMissingHeaders
	}

	if err := v.wh.Verify(body, h.HTTPHeader()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return nil
}

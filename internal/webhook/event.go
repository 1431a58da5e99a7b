package webhook

import (
	"encoding/json"
	"net/http"
)

// Svix header names.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// Event types dispatched to the store.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Headers are the signature headers of one delivery.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// Complete reports whether all three headers are present.
func (h Headers) Complete() bool {
	return h.ID != "" && h.Timestamp != "" && h.Signature != ""
}

// HTTPHeader returns the headers in the form the svix verifier expects.
func (h Headers) HTTPHeader() http.Header {
	out := make(http.Header, 3) //nolint:mnd
	out.Set(HeaderID, h.ID)
	out.Set(HeaderTimestamp, h.Timestamp)
	out.Set(HeaderSignature, h.Signature)

	return out
}

// Event is the envelope of every delivery.
type Event struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// UserData is the subset of the provider's user object the store needs.
// Nullable fields are pointers so an absent value and null are told apart from "".
type UserData struct {
	ID             *string        `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	ImageURL       *string        `json:"image_url"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	Username       *string        `json:"username"`
	Deleted        bool           `json:"deleted"`
}

// EmailAddress is one entry of the user's email address list.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

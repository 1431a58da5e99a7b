package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/imaginify/usersync/internal/db/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func decodeUserData(raw json.RawMessage) (UserData, error) {
	var data UserData

	if len(raw) == 0 || string(raw) == "null" {
		return data, fmt.Errorf("%w: event has no data", ErrMapping)
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("%w: %w", ErrMapping, err)
	}

	return data, nil
}

func externalID(data UserData) (string, error) {
	id := stringOrEmpty(data.ID)
	if id == "" {
		return "", fmt.Errorf("%w: missing user id", ErrMapping)
	}

	return id, nil
}

func profile(data UserData) models.Profile {
	return models.Profile{
		FirstName: stringOrEmpty(data.FirstName),
		LastName:  stringOrEmpty(data.LastName),
		Username:  stringOrEmpty(data.Username),
		PhotoURL:  stringOrEmpty(data.ImageURL),
	}
}

// MapCreated maps the data of a user.created event to a new user record.
// The first email address is the user's email, an empty list fails.
func MapCreated(raw json.RawMessage) (*models.User, error) {
	data, err := decodeUserData(raw)
	if err != nil {
		return nil, err
	}

	id, err := externalID(data)
	if err != nil {
		return nil, err
	}

	if len(data.EmailAddresses) == 0 || data.EmailAddresses[0].EmailAddress == "" {
		return nil, fmt.Errorf("%w: user %s has no email address", ErrMapping, id)
	}

	u := models.NewUser(id, data.EmailAddresses[0].EmailAddress, profile(data))

	if err = validate.Struct(u); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMapping, err)
	}

	return u, nil
}

// MapUpdated maps the data of a user.updated event to the external id and the
// profile fields to overwrite.
func MapUpdated(raw json.RawMessage) (string, models.Profile, error) {
	data, err := decodeUserData(raw)
	if err != nil {
		return "", models.Profile{}, err
	}

	id, err := externalID(data)
	if err != nil {
		return "", models.Profile{}, err
	}

	return id, profile(data), nil
}

// MapDeleted returns the external id of a user.deleted event.
func MapDeleted(raw json.RawMessage) (string, error) {
	data, err := decodeUserData(raw)
	if err != nil {
		return "", err
	}

	return externalID(data)
}

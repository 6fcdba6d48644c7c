package airtable

import "errors"

// Sentinel kinds for record source errors.
var (
	ErrMissingCredentials = errors.New("airtable base id and token are required")
	ErrRequest            = errors.New("airtable request failed")
	ErrUnexpectedStatus   = errors.New("airtable returned unexpected status")
	ErrDecode             = errors.New("airtable response could not be decoded")
)

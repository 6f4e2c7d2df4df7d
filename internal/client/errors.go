package client

import "errors"

var (
	// ErrRequestFailed covers transport failures and non-2xx responses.
	// The batch yields no rows and the run goes on.
	ErrRequestFailed = errors.New("category request failed")

	// ErrMalformedResponse means expected fields were missing or mistyped.
	// The batch yields no rows and the run goes on.
	ErrMalformedResponse = errors.New("malformed category response")

	// ErrUnexpectedShape means the lookup data could not be classified as
	// JSON at all. It aborts the run.
	ErrUnexpectedShape = errors.New("category data has an unrecognized shape")
)

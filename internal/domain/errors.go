package domain

import "errors"

// ErrUnauthorized is returned when the storefront API responds with HTTP 401.
// Callers can check for it using errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// ErrSessionExpired is returned when the access credential could not be
// refreshed and the user has to log in again.
var ErrSessionExpired = errors.New("session expired")

// ErrTimeout is returned when no response arrived within the client timeout.
var ErrTimeout = errors.New("request timed out")

// ErrNetwork is returned when the connection to the API could not be established.
var ErrNetwork = errors.New("network error")

package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a component was constructed with an unusable configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrExtractionFailed indicates the source bytes of a document could not be turned into text
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrServiceUnavailable indicates an external service (embedding, index, generation) could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrPartialDeletion indicates a document could be removed from neither store
	ErrPartialDeletion = errors.New("partial deletion")

	// ErrEmbeddingMismatch indicates an attempt to use a different embedding model than the corpus was built with
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates a wrong client id/secret combination
	ErrInvalidCredentials = errors.New("invalid credentials")
)

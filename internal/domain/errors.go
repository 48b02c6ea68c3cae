package domain

import "errors"

// Repository sentinels. Usecases translate them into apperror values with a
// message that fits the operation.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")
)

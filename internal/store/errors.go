package store

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrOfferingNotFound = errors.New("offering not found")
	ErrUserNotFound     = errors.New("user not found")
)

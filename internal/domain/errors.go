package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCorruptStore    = errors.New("session store file is corrupt")
)

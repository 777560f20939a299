package repository

import "errors"

// Storage-level conflicts translated from dialect constraint errors
var (
	ErrUsernameTaken       = errors.New("username already taken")
	ErrTaxNumberTaken      = errors.New("tax number already registered")
	ErrDuplicateCompletion = errors.New("completion already recorded for this session, client and date")
	ErrUnknownReference    = errors.New("referenced session or user does not exist")
)

package service

import "errors"

// Validation failures callers are expected to branch on and translate
// into user-facing messages.
var (
	ErrDeckSize         = errors.New("a deck needs exactly five cards")
	ErrCardNotOwned     = errors.New("card is not in your collection")
	ErrDuplicateSubject = errors.New("deck holds two prints of the same subject")
	ErrBadTitle         = errors.New("title is empty or too long")
)

package store

import "errors"

// Expected business-rule rejections. Brokers map these to user-visible
// messages; anything else is treated as an unexpected failure.
var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyOwned      = errors.New("card already in inventory")
	ErrNotOwner          = errors.New("card not in inventory")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrDeckExists        = errors.New("deck with this name already exists")
	ErrDeckMissing       = errors.New("no deck with this name")
	ErrSecretClaimed     = errors.New("secret reward already claimed")
)

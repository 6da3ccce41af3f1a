package ledger

import "errors"

var (
	ErrNotConnected   = errors.New("wallet not connected")
	ErrEventNotFound  = errors.New("event not found")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidRecord  = errors.New("invalid ledger record")
	ErrReadOnly       = errors.New("ledger session is read-only")
)

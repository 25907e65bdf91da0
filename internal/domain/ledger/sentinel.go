package ledger

import "errors"

// Id sentinels returned by create and update operations
const (
	IDTransportFailure   = -2
	IDPreconditionFailed = -1
)

// Errors matching the id sentinels
var (
	ErrTransport    = errors.New("ledger: credentials or transport failure")
	ErrPrecondition = errors.New("ledger: business precondition failed")
)

// IDError maps a returned id to an error, nil for a valid id
func IDError(id int) error {
	switch {
	case id == IDTransportFailure:
		return ErrTransport
	case id < 0:
		return ErrPrecondition
	default:
		return nil
	}
}

// IsValidID reports whether id is a real entity id
func IsValidID(id int) bool {
	return id >= 0
}

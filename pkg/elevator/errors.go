package elevator

import "errors"

var (
	// ErrNoElevatorsAvailable is returned when a dispatch is attempted against an empty fleet.
	// 비어 있는 플릿에 배차를 시도하면 반환됩니다.
	ErrNoElevatorsAvailable = errors.New("no elevators available")

	// ErrNoElevators is the empty-fleet indicator returned by List.
	ErrNoElevators = errors.New("no elevators configured")

	// ErrNotFound is returned by lookups of an unknown panel id.
	ErrNotFound = errors.New("elevator not found")

	// ErrInvalidConfig rejects a fleet configuration before it replaces the current one.
	ErrInvalidConfig = errors.New("invalid fleet configuration")
)

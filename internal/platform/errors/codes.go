// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Membership errors
	CodeNotInGame       Code = "NOT_IN_GAME"
	CodeTargetNotInGame Code = "TARGET_NOT_IN_GAME"
	CodeAlreadyJoined   Code = "ALREADY_JOINED"
	CodeRosterLocked    Code = "ROSTER_LOCKED"

	// Action errors
	CodeSelfTarget         Code = "SELF_TARGET"
	CodeAlreadyActedToday  Code = "ALREADY_ACTED_TODAY"
	CodeDuplicateSignature Code = "DUPLICATE_SIGNATURE"

	// Claim errors
	CodeNoActiveTrain  Code = "NO_ACTIVE_TRAIN"
	CodeTrainFull      Code = "TRAIN_FULL"
	CodeAlreadyClaimed Code = "ALREADY_CLAIMED"
	CodeNoClaim        Code = "NO_CLAIM"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

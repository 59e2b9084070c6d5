package domain

import "errors"

var (
	// ErrNoQuestionsAvailable is returned when the pool is empty after filtering malformed entries.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrInvalidSubmission is returned when no valid option was selected.
	ErrInvalidSubmission = errors.New("invalid submission: select one of the shown options")
	// ErrPersistenceFailure wraps a failed atomic result write.
	ErrPersistenceFailure = errors.New("persist quiz result")
	// ErrSecondaryEffect marks a failed post-quiz side effect; it is logged, never returned.
	ErrSecondaryEffect = errors.New("secondary effect failed")
	// ErrMissingIdentity is returned when no authenticated user is attached to the request.
	ErrMissingIdentity = errors.New("missing user identity")

	// ErrSessionNotFound is returned when a quiz session does not exist.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned for answers submitted after the last question.
	ErrSessionFinished = errors.New("quiz session finished")
	// ErrSessionInProgress is returned when finishing a session that still has questions left.
	ErrSessionInProgress = errors.New("quiz session still in progress")
	// ErrSessionClosed is returned for operations on a torn down session.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrAnswerLocked is returned when the current question was already answered.
	ErrAnswerLocked = errors.New("answer already submitted")
	// ErrResultRecorded is returned when a session's result was already persisted.
	ErrResultRecorded = errors.New("quiz result already recorded")
	// ErrInvalidPreferences is returned when notification preferences fail validation.
	ErrInvalidPreferences = errors.New("invalid notification preferences")
)

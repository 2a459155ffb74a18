package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an activity session has not been started or already ended.
	ErrSessionNotFound = errors.New("activity session not found")
	// ErrActivityNotFound indicates the activity content could not be loaded.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrPathNotFound indicates an unknown learning path.
	ErrPathNotFound = errors.New("learning path not found")
	// ErrModuleNotFound indicates a module id that is not part of the path.
	ErrModuleNotFound = errors.New("module not found in learning path")
	// ErrIndexOutOfRange is returned by Current on an empty step list.
	ErrIndexOutOfRange = errors.New("step index out of range")
	// ErrInvalidIndex rejects a jump outside [0, len(steps)).
	ErrInvalidIndex = errors.New("invalid step index")
	// ErrAnswerRequired rejects advancing past an unanswered gating step.
	ErrAnswerRequired = errors.New("step must be answered before continuing")
	// ErrAlreadyAnswered rejects changing the working answer once a verdict exists.
	ErrAlreadyAnswered = errors.New("step already answered")
	// ErrNotAnswerable is returned when submitting on a step without an expected answer.
	ErrNotAnswerable = errors.New("step has nothing to answer")
	// ErrEmptyAnswer rejects a submission before anything has been entered.
	ErrEmptyAnswer = errors.New("nothing entered to submit")
	// ErrSessionComplete rejects input after the sequence reached Complete.
	ErrSessionComplete = errors.New("activity session already complete")
	// ErrMalformedStep is an authoring defect caught when content is loaded.
	ErrMalformedStep = errors.New("malformed step")
)

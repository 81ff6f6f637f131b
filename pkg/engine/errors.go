package engine

import "errors"

var (
	// ErrUnknownType is returned when a template names a variable type
	// that does not exist.
	ErrUnknownType = errors.New("engine: unknown value type")

	// ErrTypeMismatch is returned when a Value is accessed as the wrong
	// variant or a blackboard write does not match the declared type.
	ErrTypeMismatch = errors.New("engine: type mismatch")

	// ErrUnknownVariable is returned when a blackboard name was never
	// declared by the bound template.
	ErrUnknownVariable = errors.New("engine: unknown variable")

	// ErrNodeNotFound is returned when a referenced node id does not
	// resolve in the template.
	ErrNodeNotFound = errors.New("engine: node not found")

	// ErrUnknownTask is returned when a node references a task identity
	// absent from the registry.
	ErrUnknownTask = errors.New("engine: unknown task identity")

	// ErrMissingParam is returned when a required task parameter is
	// absent from the resolved parameter map.
	ErrMissingParam = errors.New("engine: missing required parameter")

	// ErrNotInitialized is returned when a blackboard operation runs
	// before Initialize bound a template.
	ErrNotInitialized = errors.New("engine: blackboard not initialized")
)

package broker

// configurationError signals a missing/blank model path. Fatal to the call,
// surfaced before the native layer is touched.
type configurationError struct{ msg string }

func (e configurationError) Error() string { return "configuration: " + e.msg }

// ErrConfiguration constructs a configuration error.
func ErrConfiguration(msg string) error { return configurationError{msg: msg} }

// IsConfiguration reports whether err is a configuration error (422 mapping).
func IsConfiguration(err error) bool {
	_, ok := err.(configurationError)
	return ok
}

// resourceConstructionError signals that the native engine or session could
// not be created (typically out of memory).
type resourceConstructionError struct {
	stage string // "engine" or "session"
	cause error
}

func (e resourceConstructionError) Error() string {
	return "resource construction (" + e.stage + "): " + e.cause.Error()
}

func (e resourceConstructionError) Unwrap() error { return e.cause }

// ErrResourceConstruction constructs a resource construction error; stage is
// "engine" or "session".
func ErrResourceConstruction(stage string, cause error) error {
	return resourceConstructionError{stage: stage, cause: cause}
}

// IsResourceConstruction reports whether err indicates engine/session
// creation failure (503 mapping).
func IsResourceConstruction(err error) bool {
	_, ok := err.(resourceConstructionError)
	return ok
}

// generationError signals that feeding or the blocking generation call
// failed after the resource was constructed.
type generationError struct{ cause error }

func (e generationError) Error() string { return "generation: " + e.cause.Error() }

func (e generationError) Unwrap() error { return e.cause }

// ErrGeneration constructs a generation error.
func ErrGeneration(cause error) error { return generationError{cause: cause} }

// IsGeneration reports whether err came from the generation step itself.
func IsGeneration(err error) bool {
	_, ok := err.(generationError)
	return ok
}

// parseFailureError signals that generation succeeded but the model text
// yielded no usable score/feedback. The message embeds the raw output so it
// survives into whatever result the caller synthesizes.
type parseFailureError struct{ diagnostic string }

func (e parseFailureError) Error() string { return e.diagnostic }

// ErrParseFailure constructs an unusable-output failure carrying the
// diagnostic (which embeds the raw model text).
func ErrParseFailure(diagnostic string) error { return parseFailureError{diagnostic: diagnostic} }

// IsParseFailure reports whether err is an unusable-output failure. The
// orchestrator converts these to per-item results rather than halting.
func IsParseFailure(err error) bool {
	_, ok := err.(parseFailureError)
	return ok
}

// ErrDependencyUnavailable constructs an error for a missing native runtime
// so the HTTP layer can answer 503 instead of 500.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// IsDependencyUnavailable reports whether err indicates the inference
// runtime is not built into or reachable from this binary.
func IsDependencyUnavailable(err error) bool {
	_, ok := err.(dependencyUnavailableError)
	return ok
}

// Package engine produces trajectory continuations.
//
// An [Engine] turns a [Request] (start frame, [Direction], stopping
// conditions, noise seed) into a trajectory. [MDEngine] integrates a
// [dynamo.System]; backward continuations are run forward from the
// velocity-reversed start frame and reversed again before they are returned.
//
// Errors that mean "no continuation could be produced" wrap [ErrEngineFailure]
// through a [*Failure]. Context cancellation is returned as the context's error.
package engine

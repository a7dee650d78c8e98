// Package algo provides the instrumented sorting and searching algorithms.
//
// Every algorithm reports its progress through an [Emitter] after each
// notable operation (comparison, swap, shift, merge write, range narrowing):
//
//   - [Step]: progress in [0,100] plus the indices in each visual role
//   - [Env]: the emitter, a speed accessor and a sleeper used for pacing
//   - [Registry]: closed set of algorithms looked up by [ID]
//
// # Cancellation
//
// An emitter returning false is the only way to stop a run. The algorithm
// returns [ErrCanceled] before its next emission and leaves the working
// array as a permutation of its input.
//
// # Pacing
//
// After an ordinary step the algorithm sleeps [Delay] for the current
// speed; after a structural mutation it sleeps [MutationDelay].
package algo

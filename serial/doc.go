// Package serial provides the serialized execution context that underpins a
// store: tasks run strictly one at a time, in admission order, on a single
// goroutine.
//
// Two executors are provided. Loop is the production executor, a goroutine
// draining an unbounded FIFO queue. Immediate is a deterministic executor
// for tests that runs each task inline on the submitting goroutine.
//
// Each task execution is identified by a token carried in the task's
// context. RunningOn answers "is this context the execution currently on
// the loop", which is how nested dispatches are recognized and processed
// inline instead of being re-queued. The token identifies an execution, not
// a goroutine: a context captured by asynchronous work goes stale once its
// execution finishes, and dispatches made with it are admitted through the
// queue like any external dispatch.
package serial

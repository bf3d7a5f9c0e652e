// Package messaging defines an in-process message bus for three message
// kinds: commands and queries (actions, answered by exactly one handler) and
// events (fanned out to every listener).
//
// Every message carries Headers. Handlers and listeners run on their own
// goroutines; callers await them through Execute, ExecuteAsync and Publish.
// Failures of handlers and listeners are reported on a diagnostic side
// channel (see Observe) in addition to the error returned to the executor.
//
// Implementations live in sub-packages: memory for a single process and
// redis for relaying events between processes through a Redis stream.
package messaging

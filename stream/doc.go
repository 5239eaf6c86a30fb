// Package stream provides the replay-last value stream a store publishes
// its state through.
//
// A Stream always holds a current value. Subscribing delivers that value
// immediately, then every subsequently published value exactly once, in
// publish order. A per-subscription sequence guard closes the race between
// subscribing and publishing: a subscriber never misses a value published
// after its registration and never receives the same value twice.
//
// Published deliveries run on the publishing goroutine; the replay delivery
// runs on the subscribing goroutine. Callbacks should be fast and must not
// block. A stream never completes on its own; it ends only when Close is
// called, which cancels all subscriptions.
package stream

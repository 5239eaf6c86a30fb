// Package relay exports dispatched actions to an AMQP broker for external
// observation. A relay middleware queues each envelope after its reduction
// and a background worker publishes it to a topic exchange, so the dispatch
// pipeline never waits on the broker. The flow is strictly one way: the
// relay never feeds anything back into the store.
package relay

// Package journal records every reduction a store performs: the action,
// where it came from, the state before and after, whether the result was
// published, and how long the bracket took.
//
// The journal is a devtools surface. It is fed by a middleware, queried by
// sequence, type or time, and its entries can be diffed and replayed into a
// fresh store. Two backends are provided: a bounded in-memory ring and a
// SQLite store.
//
// Journaling failures are logged and never fed back into dispatch.
package journal

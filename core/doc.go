// Package core contains the card management domain: the public error taxonomy,
// the card state machine, the analytics event pipeline and the manager that
// owns the session token. Adapters depend on this package; core must not
// depend on queue, storage or command adapters.
package core

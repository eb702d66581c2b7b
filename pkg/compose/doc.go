// Package compose builds higher-order executors on top of the scheduler
// primitives: sequential chains, bounded retries, protected calls and
// wait-for-N-of-M child groups. Everything here is an ordinary executor run
// through the normal dispatch machinery; nothing requires scheduler support.
package compose

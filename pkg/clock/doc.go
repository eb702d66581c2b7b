// Package clock defines the two capabilities the scheduler consumes from its
// host environment: an ordered, cyclically repeating tick source and a clock.
//
// The host's real frame or event loop implements TickSource; Interval is a
// reference implementation driven by a time.Ticker. Manual is a hand-stepped
// tick source with a settable clock, used to make scheduling tests
// deterministic.
package clock

// Package schedule fires automated dataflow runs at requested times. It
// keeps a single pending run per dataflow in a time-ordered heap and
// drives it from one timer, so rescheduling and cancellation never leak
// timers.
package schedule

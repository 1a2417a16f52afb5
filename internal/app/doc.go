// Package app implements message intake: validate and stamp an inbound
// message, then fan it out to the history buffer, the realtime broadcaster,
// and the push dispatcher.
package app

// Package sample holds the demo pages served by the shadow command: a
// static greeting, a click counter that can be hydrated from its own
// server-rendered markup, and a greeting that waits on pending work.
package sample

// Package state keeps per-user conversation sessions for Telegram bots.
// A session is a state name plus the numeric values collected so far;
// the package does not know what the states mean.
package state

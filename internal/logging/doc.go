// Package logging provides opt-in file-based logging with rotation for the
// memory core daemon. When --debug is set, structured JSON logs are written
// to ~/.memcore/logs/ for troubleshooting hash-mismatch and embedding
// failures after the fact.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging

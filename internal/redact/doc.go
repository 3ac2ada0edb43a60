// Package redact masks credentials in the source excerpts that audit
// reports echo back, so that a report printed to a terminal, written to
// CI logs or uploaded as SARIF does not repeat the secret it flagged.
//
// Assignments keep their key and lose their value:
//
//	password = "hunter2hunter2"  ->  password = "[REDACTED]"
//
// Free-standing token shapes (JWTs, provider keys, PEM headers) are
// replaced whole. Files matching a configured glob are masked entirely.
package redact

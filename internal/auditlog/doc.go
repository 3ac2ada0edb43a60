// Package auditlog appends one line per completed audit to a plain-text
// log shared by every audit mode:
//
//	[2024-03-01 10:15:00] [FAIL] [staged-changes] 1 critical, 2 warnings
//
// Writes go through a Sink. The Recorder wrapping a Sink never reports a
// failure to its caller, so a broken log cannot change an audit's verdict.
package auditlog

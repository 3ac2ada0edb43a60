// Package history parses the prompt history document, the append-only
// markdown log of tasks previously handed to a code generator.
//
// The document is a preamble followed by sections. A section starts at a
// "---" line directly followed by a "## YYYY-MM-DD" heading, and its first
// fenced code block holds the task text. From the text the parser derives a
// title (the "Task:" label, or the first 50 characters) and the set of
// files the task references. Sections without a closed fence are skipped.
//
// A missing document is not an error for callers that only read history:
// Load returns an empty Store together with ErrNoHistory.
package history

// Package output formats audit reports for display or machine consumption.
//
// Four formats are supported for diff, file and tree audits:
//   - text    : the terminal report: banner, critical block, capped warning
//     block and verdict line, colored when the destination is a terminal
//   - json    : full structured JSON report
//   - markdown: PR-comment-friendly summary table and per-severity sections
//   - sarif   : SARIF v2.1.0 for upload to code-scanning dashboards
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*audit.Report]. Prompt audits
// render through [GetPromptWriter] as text or JSON.
package output

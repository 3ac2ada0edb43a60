// Package audit contains the rule catalog, line extractors and classifier
// that make up the pre-commit audit engine.
//
// Lines are produced by one of two extractors: [DiffLines] forwards only the
// added lines of a unified diff, tagged with the file named by the most
// recent "+++" header, and [FileLines] forwards every line of a file. A
// [Classifier] applies an ordered, declarative table of [Rule] values to
// those lines and returns a [ScanResult], whose [ScanResult.Verdict] is fail
// when any critical issue exists, pass-with-warnings when only warnings
// exist, and clean otherwise.
//
// Scanning is a pure function of the input text, the catalog and the
// [Policy]; running it twice over the same text yields identical results.
//
// Rules files (rules.go) let callers disable catalog entries or override
// their severities without touching the classifier.
package audit

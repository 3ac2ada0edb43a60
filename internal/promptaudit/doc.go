// Package promptaudit checks a task prompt against the prompt history
// before it is sent to a code generator.
//
// Two advisory checks run over the most recent history entries: a
// duplicate check comparing titles with the Ratcliff/Obershelp similarity
// ratio, and a conflict check reporting files that a recent task already
// touches. Neither check blocks the prompt. The audited prompt is returned
// with the coding-standards block appended unless it already carries one.
package promptaudit

// Package watch re-audits files as they are saved.
//
// A [Watcher] registers every directory under a root with fsnotify, skipping
// VCS metadata, dependency trees and configured exclude globs. Write and
// create events are debounced per path; once a path has been quiet for the
// debounce window the handler runs with the path relative to the root.
// Directories created while watching are picked up automatically.
package watch

// Package watcher keeps the index synchronized with a live repository.
//
// fsnotify events for the watched tree are normalized into typed events on
// one channel and consumed by a single dispatch loop. Each path has its own
// debounce timer (1s by default), so an editor's burst of writes to one
// file collapses into a single re-index once the path goes quiet. Creates
// and modifications re-run the file through the indexing pipeline; removes
// and renames drop the file's rows.
//
// Ignore decisions are shared with the indexer, so the watcher never
// indexes anything a scan would not. Start while running and Stop while
// stopped are no-ops; Pause drops events until Resume.
package watcher

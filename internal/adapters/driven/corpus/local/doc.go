// Package local implements the corpus searcher over a directory of
// rulebook documents on disk.
//
// Markdown and plaintext files under the corpus directory are split into
// sections at their headings and indexed in memory. Search scores
// sections by keyword overlap with the query, weighting heading matches
// above body matches. An optional fsnotify watcher reloads the index
// when files under the directory change, so rulebook edits show up
// without a restart.
package local

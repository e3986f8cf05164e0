// Package exchange reads and writes document exports.
//
// Three formats are supported: JSON (a single array), CSV (one row per
// document over the sorted union of top-level keys, nested values JSON
// encoded) and YAML (a sequence of mappings). Watcher reports files
// dropped into a directory so they can be imported as they arrive.
package exchange

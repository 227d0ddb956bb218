// Package sqlite implements game persistence on SQLite.
//
// Turn invariants live in the schema: a partial unique index allows one
// pending turn per game and another keeps placed coordinates unique per
// game. Commits are conditional updates on played_at IS NULL.
package sqlite

// Package models defines domain entities and persistence interfaces for the Retrograde suggestion service.
//
// The only persistent entity is [Feedback]: a listener's free-text taste
// preference, folded into subsequent suggestion prompts. Everything else the
// service works with (prompt contexts, song candidates, resolved tracks) lives
// for a single request and is owned by the package that produces it.
//
// [Feedback] implements the [Model] interface providing ID generation,
// timestamps, validation, and soft delete support. The [Repository] interface
// defines standard data access operations for database-backed types.
package models

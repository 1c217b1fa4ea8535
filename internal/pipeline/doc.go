// Package pipeline transforms a notebook for publication through an ordered
// list of units.
//
// A unit is either a cell unit, applied to every cell in document order and
// free to replace the cell it is given, or a document unit, applied once to
// the whole notebook. Units run strictly one after another; each sees the
// notebook exactly as the previous unit left it.
//
// The default documentation pipeline is idempotent: running it over its own
// output changes nothing. Units that synthesize cells check for their own
// earlier output before inserting anything, and execution decisions are
// recorded on the cells so they are never revisited.
package pipeline

// Package refs removes stale branches and tags from a GitHub repository.
//
// A reference is stale when the date of the commit it points to precedes a
// cutoff, 180 days before now unless configured otherwise. Service evaluates
// references one at a time: a failure to resolve a date or delete a reference
// is logged and recorded, and the pass continues with the next reference.
package refs

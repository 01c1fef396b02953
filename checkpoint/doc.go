// Package checkpoint captures and restores registry state between ticks.
//
// A checkpoint is a JSON document holding every live entity with its components encoded
// through their schemas, compressed with zstd. Restoring validates each component against a
// JSON Schema derived from its schema before decoding it, and keeps entity ids. Digest gives
// lockstep peers a cheap way to compare state; RestoreScheduler also resumes the scheduler at
// the checkpoint tick.
package checkpoint

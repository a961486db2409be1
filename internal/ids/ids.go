// Package ids provides process-wide identifier allocation and interning.
//
// FileIDs are 32-bit, monotonic, and never reused for the life of the
// process; content and path strings are interned so that equality checks
// between values pulled out of the database are pointer/hash comparisons
// rather than byte-for-byte string comparisons.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// FileID uniquely identifies a file for the lifetime of the process.
type FileID uint32

// InvalidFileID is never returned by Allocator.Next.
const InvalidFileID FileID = 0

// Allocator hands out monotonically increasing FileIDs.
type Allocator struct {
	next uint32
}

// NewAllocator returns an Allocator whose first Next() call yields FileID(1).
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next allocates and returns a new, never-before-seen FileID.
func (a *Allocator) Next() FileID {
	return FileID(atomic.AddUint32(&a.next, 1))
}

// Hash returns the hex-encoded SHA-256 digest of data, used throughout the
// codebase as the content-identity fingerprint for interned strings and
// cache keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Content is an interned, immutable file body. Two Content values loaded
// from equal bytes share the same underlying string and compare equal by
// hash before ever touching the bytes themselves.
type Content struct {
	hash string
	text string
}

// Text returns the interned string.
func (c Content) Text() string { return c.text }

// Hash returns the content's identity fingerprint.
func (c Content) Hash() string { return c.hash }

// Len returns the content length in bytes.
func (c Content) Len() int { return len(c.text) }

// Equal reports whether two Content values hold byte-identical text,
// short-circuiting on the precomputed hash.
func (c Content) Equal(other Content) bool {
	if c.hash != other.hash {
		return false
	}
	return c.text == other.text
}

// Interner deduplicates strings (file content or paths) by hash so that
// repeated edits to unchanged content are cheap to recognize as "no
// structural change" by the query database (see internal/db's durable
// identity contract).
type Interner struct {
	mu      sync.RWMutex
	content map[string]Content
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{content: make(map[string]Content)}
}

// Intern returns the canonical Content for text, creating and storing one
// if this is the first time this exact byte sequence has been seen.
func (in *Interner) Intern(text string) Content {
	h := Hash([]byte(text))

	in.mu.RLock()
	if c, ok := in.content[h]; ok && c.text == text {
		in.mu.RUnlock()
		return c
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if c, ok := in.content[h]; ok && c.text == text {
		return c
	}
	c := Content{hash: h, text: text}
	in.content[h] = c
	return c
}

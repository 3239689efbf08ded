package storage

import "fmt"

// htSizeFactor sets the hash table's fixed bucket count relative to
// the pool's frame count, following the ~1.2x headroom used by the
// original implementation to keep chains short without resizing.
const htSizeFactor = 1.2

// hashKey identifies a resident page by (file identity, page number).
type hashKey struct {
	fileID uint64
	pageNo PageID
}

type hashBucket struct {
	key   hashKey
	frame FrameID
	next  *hashBucket
}

// hashTable is the chained (file, page) -> frame index the buffer pool
// uses to find out whether a page is already resident. Its size is
// fixed at construction; it never rehashes.
type hashTable struct {
	buckets []*hashBucket
	size    int
}

func newHashTable(numBufs int) *hashTable {
	size := int(float64(numBufs) * htSizeFactor)
	if size < 1 {
		size = 1
	}
	return &hashTable{buckets: make([]*hashBucket, size), size: size}
}

func (t *hashTable) hash(fileID uint64, pageNo PageID) int {
	return int((fileID + uint64(pageNo)) % uint64(t.size))
}

// insert adds a (file, page) -> frame mapping, failing with
// ErrHashAlreadyPresent if the key is already present.
func (t *hashTable) insert(fileID uint64, pageNo PageID, frame FrameID) error {
	index := t.hash(fileID, pageNo)
	key := hashKey{fileID, pageNo}
	for b := t.buckets[index]; b != nil; b = b.next {
		if b.key == key {
			return fmt.Errorf("hash insert file=%d page=%d: %w", fileID, pageNo, ErrHashAlreadyPresent)
		}
	}
	t.buckets[index] = &hashBucket{key: key, frame: frame, next: t.buckets[index]}
	return nil
}

// lookup returns the frame holding (file, page), failing with
// ErrHashNotFound if it is not resident.
func (t *hashTable) lookup(fileID uint64, pageNo PageID) (FrameID, error) {
	index := t.hash(fileID, pageNo)
	key := hashKey{fileID, pageNo}
	for b := t.buckets[index]; b != nil; b = b.next {
		if b.key == key {
			return b.frame, nil
		}
	}
	return 0, fmt.Errorf("hash lookup file=%d page=%d: %w", fileID, pageNo, ErrHashNotFound)
}

// remove deletes the (file, page) mapping, failing with
// ErrHashNotFound if it is not present.
func (t *hashTable) remove(fileID uint64, pageNo PageID) error {
	index := t.hash(fileID, pageNo)
	key := hashKey{fileID, pageNo}
	var prev *hashBucket
	for b := t.buckets[index]; b != nil; b = b.next {
		if b.key == key {
			if prev != nil {
				prev.next = b.next
			} else {
				t.buckets[index] = b.next
			}
			return nil
		}
		prev = b
	}
	return fmt.Errorf("hash remove file=%d page=%d: %w", fileID, pageNo, ErrHashNotFound)
}

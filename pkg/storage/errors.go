package storage

import "errors"

// Sentinel errors for the paged-file store, the (file, page) hash
// index, and the buffer pool. Callers should compare with errors.Is;
// call sites wrap these with fmt.Errorf("...: %w", ...) for context.
var (
	// ErrFileExists is returned when Create is called on a file that
	// already exists.
	ErrFileExists = errors.New("storage: file already exists")

	// ErrFileNotFound is returned when Open or Remove is called on a
	// file that does not exist.
	ErrFileNotFound = errors.New("storage: file not found")

	// ErrFileOpen is returned when Remove is called on a file that
	// still has open handles.
	ErrFileOpen = errors.New("storage: file is open")

	// ErrInvalidPage is returned when a page number is out of range or
	// names a page that is currently on the free list.
	ErrInvalidPage = errors.New("storage: invalid page")

	// ErrBufferExceeded is returned when the clock sweep finds every
	// frame pinned.
	ErrBufferExceeded = errors.New("storage: buffer pool exceeded")

	// ErrPageNotPinned is returned by UnpinPage when the frame's pin
	// count is already zero.
	ErrPageNotPinned = errors.New("storage: page not pinned")

	// ErrPagePinned is returned by FlushFile when it encounters a
	// pinned frame belonging to the file being flushed.
	ErrPagePinned = errors.New("storage: page pinned")

	// ErrBadBuffer is returned by FlushFile when the hash index still
	// names a frame that is no longer valid.
	ErrBadBuffer = errors.New("storage: bad buffer")

	// ErrHashAlreadyPresent is returned by the hash index's insert
	// when the (file, page) key is already present.
	ErrHashAlreadyPresent = errors.New("storage: hash entry already present")

	// ErrHashNotFound is returned by the hash index's lookup and
	// remove when the (file, page) key is absent.
	ErrHashNotFound = errors.New("storage: hash entry not found")
)

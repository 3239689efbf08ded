package storage

import (
	"encoding/binary"
	"fmt"
	"os"
)

// FileHeader tracks a file's used/free page bookkeeping. It is stored
// at offset 0 of the backing stream, ahead of every page.
type FileHeader struct {
	NumPages      uint32 // count of pages ever allocated (not yet freed back to the OS)
	FirstUsedPage PageID // head of the used list, ascending by page number
	NumFreePages  uint32 // count of pages on the free list
	FirstFreePage PageID // head of the free list
}

func (h FileHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.NumPages)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.FirstUsedPage))
	binary.LittleEndian.PutUint32(buf[8:12], h.NumFreePages)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.FirstFreePage))
}

func decodeFileHeader(buf []byte) FileHeader {
	return FileHeader{
		NumPages:      binary.LittleEndian.Uint32(buf[0:4]),
		FirstUsedPage: PageID(binary.LittleEndian.Uint32(buf[4:8])),
		NumFreePages:  binary.LittleEndian.Uint32(buf[8:12]),
		FirstFreePage: PageID(binary.LittleEndian.Uint32(buf[12:16])),
	}
}

const fileHeaderSize = 16

func pagePosition(n PageID) int64 {
	return int64(fileHeaderSize) + int64(n-1)*int64(PageSize)
}

// File is a named on-disk stream of fixed-size pages threaded with a
// used list and a free list. It is not safe for concurrent use, and is
// obtained only through Create/Open so that two opens of the same path
// share one underlying stream (see registry.go).
type File struct {
	id     uint64
	path   string
	stream *os.File
	cipher *PageCipher // optional at-rest encryption of the data region; nil disables it
}

// ID returns a stable per-file identity, assigned once when the file
// is first opened or created and unique for the lifetime of the
// process. The buffer pool's hash index keys on this, not on the
// filename, so that identity survives renames and compares cheaply.
func (f *File) ID() uint64 { return f.id }

// Filename returns the path this file was opened or created with.
func (f *File) Filename() string { return f.path }

// SetCipher installs (or removes, with nil) at-rest encryption for
// this file's page data regions. It must be called before any pages
// are read; existing resident pages are unaffected.
func (f *File) SetCipher(c *PageCipher) { f.cipher = c }

func createFile(path string) (*File, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %q: %w", path, ErrFileExists)
	}
	stream, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", path, err)
	}
	f := &File{path: path, stream: stream}
	header := FileHeader{FirstUsedPage: InvalidPageID, FirstFreePage: InvalidPageID}
	if err := f.writeHeader(header); err != nil {
		stream.Close()
		os.Remove(path)
		return nil, err
	}
	return f, nil
}

func openFile(path string) (*File, error) {
	stream, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %q: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	return &File{path: path, stream: stream}, nil
}

func (f *File) close() error {
	return f.stream.Close()
}

func (f *File) readHeader() (FileHeader, error) {
	buf := make([]byte, fileHeaderSize)
	if _, err := f.stream.ReadAt(buf, 0); err != nil {
		return FileHeader{}, fmt.Errorf("read header of %q: %w", f.path, err)
	}
	return decodeFileHeader(buf), nil
}

func (f *File) writeHeader(h FileHeader) error {
	buf := make([]byte, fileHeaderSize)
	h.encode(buf)
	if _, err := f.stream.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write header of %q: %w", f.path, err)
	}
	return f.stream.Sync()
}

// readPageAllowFree reads whatever is on disk at page number n without
// checking whether the slot is currently used.
func (f *File) readPageAllowFree(n PageID) (*Page, error) {
	buf := make([]byte, PageSize)
	if _, err := f.stream.ReadAt(buf, pagePosition(n)); err != nil {
		return nil, fmt.Errorf("read page %d of %q: %w", n, f.path, err)
	}
	p := deserializePage(buf)
	if f.cipher != nil {
		f.cipher.decrypt(n, p.Data[:])
	}
	return p, nil
}

// ReadPage reads page n, failing with ErrInvalidPage if n is out of
// range or currently on the free list.
func (f *File) ReadPage(n PageID) (*Page, error) {
	header, err := f.readHeader()
	if err != nil {
		return nil, err
	}
	if n == InvalidPageID || uint32(n) > header.NumPages {
		return nil, fmt.Errorf("read page %d of %q: %w", n, f.path, ErrInvalidPage)
	}
	p, err := f.readPageAllowFree(n)
	if err != nil {
		return nil, err
	}
	if !p.IsUsed() {
		return nil, fmt.Errorf("read page %d of %q: %w", n, f.path, ErrInvalidPage)
	}
	return p, nil
}

func (f *File) writePageRaw(n PageID, header pageHeader, data *[DataSize]byte) error {
	plain := *data
	if f.cipher != nil {
		f.cipher.encrypt(n, plain[:])
	}
	page := &Page{header: header, Data: plain}
	if _, err := f.stream.WriteAt(page.serialize(), pagePosition(n)); err != nil {
		return fmt.Errorf("write page %d of %q: %w", n, f.path, err)
	}
	return f.stream.Sync()
}

// WritePage writes p's data back to its own page number, preserving
// whatever next-page link is currently on disk (the used/free list
// link is owned by AllocatePage/DeletePage, not by callers). It fails
// with ErrInvalidPage if the on-disk slot is currently free.
func (f *File) WritePage(p *Page) error {
	onDisk, err := f.readPageHeaderOnly(p.PageNumber())
	if err != nil {
		return err
	}
	if onDisk.currentPageNumber == InvalidPageID || !onDisk.used {
		return fmt.Errorf("write page %d of %q: %w", p.PageNumber(), f.path, ErrInvalidPage)
	}
	newHeader := p.header
	newHeader.nextPageNumber = onDisk.nextPageNumber
	return f.writePageRaw(p.PageNumber(), newHeader, &p.Data)
}

func (f *File) readPageHeaderOnly(n PageID) (pageHeader, error) {
	buf := make([]byte, PageHeaderSize)
	if _, err := f.stream.ReadAt(buf, pagePosition(n)); err != nil {
		return pageHeader{}, fmt.Errorf("read page header %d of %q: %w", n, f.path, err)
	}
	return decodeHeader(buf), nil
}

// walkUsedList walks the used list starting at start looking for
// the page whose next-page link should change when splicing in
// target: either the predecessor ascending-order neighbor (for
// AllocatePage) or the direct predecessor of target (for DeletePage).
// It returns InvalidPageID if no such neighbor exists.
func (f *File) walkUsedList(start PageID, stop func(cur PageID, next PageID) bool) (PageID, error) {
	cur := start
	for cur != InvalidPageID {
		h, err := f.readPageHeaderOnly(cur)
		if err != nil {
			return InvalidPageID, err
		}
		if stop(cur, h.nextPageNumber) {
			return cur, nil
		}
		cur = h.nextPageNumber
	}
	return InvalidPageID, nil
}

// AllocatePage allocates a new page: reused from the free list if one
// is available (spliced into the used list at its ascending-order
// position), otherwise appended at the end of both the file and the
// used list. The returned page already carries its assigned page
// number and is marked used, with a zeroed data region.
func (f *File) AllocatePage() (*Page, error) {
	header, err := f.readHeader()
	if err != nil {
		return nil, err
	}

	var (
		page        = newPage()
		predecessor PageID
		predNext    PageID
		havePred    bool
	)

	if header.NumFreePages > 0 {
		freeID := header.FirstFreePage
		freePage, err := f.readPageAllowFree(freeID)
		if err != nil {
			return nil, err
		}
		header.FirstFreePage = freePage.NextPageNumber()
		header.NumFreePages--

		page.setPageNumber(freeID)
		page.header.used = true

		if header.FirstUsedPage == InvalidPageID || header.FirstUsedPage > freeID {
			// No pages used yet, or the current head is numbered past the
			// page we just freed: splice in at the head.
			page.setNextPageNumber(header.FirstUsedPage)
			header.FirstUsedPage = freeID
		} else {
			// freeID is guaranteed >= FirstUsedPage here, so walking
			// forward from the head comparing next-links against freeID
			// finds the correct ascending-order splice point.
			pred, err := f.walkUsedList(header.FirstUsedPage, func(cur, next PageID) bool {
				return next == InvalidPageID || next > freeID
			})
			if err != nil {
				return nil, err
			}
			predHeader, err := f.readPageHeaderOnly(pred)
			if err != nil {
				return nil, err
			}
			page.setNextPageNumber(predHeader.nextPageNumber)
			predecessor, predNext, havePred = pred, freeID, true
		}
	} else {
		newID := PageID(header.NumPages + 1)
		header.NumPages++
		page.setPageNumber(newID)
		page.header.used = true
		page.setNextPageNumber(InvalidPageID)

		if header.FirstUsedPage == InvalidPageID {
			header.FirstUsedPage = newID
		} else {
			tail, err := f.walkUsedList(header.FirstUsedPage, func(cur, next PageID) bool {
				return next == InvalidPageID
			})
			if err != nil {
				return nil, err
			}
			predecessor, predNext, havePred = tail, newID, true
		}
	}

	if err := f.writePageRaw(page.PageNumber(), page.header, &page.Data); err != nil {
		return nil, err
	}
	if havePred {
		predHeader, err := f.readPageHeaderOnly(predecessor)
		if err != nil {
			return nil, err
		}
		predHeader.nextPageNumber = predNext
		predPage, err := f.readPageAllowFree(predecessor)
		if err != nil {
			return nil, err
		}
		if err := f.writePageRaw(predecessor, predHeader, &predPage.Data); err != nil {
			return nil, err
		}
	}
	if err := f.writeHeader(header); err != nil {
		return nil, err
	}
	return page, nil
}

// DeletePage unlinks page n from the used list, clears its body, and
// prepends it to the free list.
func (f *File) DeletePage(n PageID) error {
	header, err := f.readHeader()
	if err != nil {
		return err
	}
	existing, err := f.ReadPage(n)
	if err != nil {
		return err
	}

	if n == header.FirstUsedPage {
		header.FirstUsedPage = existing.NextPageNumber()
	} else {
		pred, err := f.walkUsedList(header.FirstUsedPage, func(cur, next PageID) bool {
			return next == n
		})
		if err != nil {
			return err
		}
		if pred != InvalidPageID {
			predHeader, err := f.readPageHeaderOnly(pred)
			if err != nil {
				return err
			}
			predHeader.nextPageNumber = existing.NextPageNumber()
			predPage, err := f.readPageAllowFree(pred)
			if err != nil {
				return err
			}
			if err := f.writePageRaw(pred, predHeader, &predPage.Data); err != nil {
				return err
			}
		}
	}

	existing.initialize()
	existing.setNextPageNumber(header.FirstFreePage)
	header.FirstFreePage = n
	header.NumFreePages++

	if err := f.writePageRaw(n, existing.header, &existing.Data); err != nil {
		return err
	}
	return f.writeHeader(header)
}

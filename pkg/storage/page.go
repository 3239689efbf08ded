// Package storage implements the buffer pool manager of a disk-backed
// storage engine: a paged-file store, a clock-sweep buffer pool, and
// the scoped page views that sit on top of it.
package storage

import "encoding/binary"

const (
	// PageSize is the size of every page, on disk and in memory.
	PageSize = 4096

	// PageHeaderSize is the size of the fixed page header prepended to
	// every page's data region.
	PageHeaderSize = 16

	// DataSize is the portion of a page available to callers above the
	// buffer pool.
	DataSize = PageSize - PageHeaderSize
)

// PageID identifies a page within a single file. Page numbers are
// 1-based and dense over allocations; 0 is reserved.
type PageID uint32

// InvalidPageID denotes "no page".
const InvalidPageID PageID = 0

// FrameID identifies a frame's fixed position within the buffer pool.
type FrameID int

// pageHeader is the on-disk header of a single page: its own page
// number, the next-page link used to thread the used and free lists,
// and whether the slot is currently in use.
type pageHeader struct {
	currentPageNumber PageID
	nextPageNumber    PageID
	used              bool
}

func (h pageHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.currentPageNumber))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.nextPageNumber))
	if h.used {
		buf[8] = 1
	} else {
		buf[8] = 0
	}
	for i := 9; i < PageHeaderSize; i++ {
		buf[i] = 0
	}
}

func decodeHeader(buf []byte) pageHeader {
	return pageHeader{
		currentPageNumber: PageID(binary.LittleEndian.Uint32(buf[0:4])),
		nextPageNumber:    PageID(binary.LittleEndian.Uint32(buf[4:8])),
		used:              buf[8] != 0,
	}
}

// Page is a fixed-size block of bytes: a small header the file store
// and buffer pool use for bookkeeping, plus an opaque data region.
type Page struct {
	header pageHeader
	Data   [DataSize]byte
}

func newPage() *Page {
	return &Page{header: pageHeader{currentPageNumber: InvalidPageID}}
}

// PageNumber returns the page's own number, or InvalidPageID if the
// page has never been assigned one.
func (p *Page) PageNumber() PageID { return p.header.currentPageNumber }

func (p *Page) setPageNumber(n PageID) { p.header.currentPageNumber = n }

// NextPageNumber returns the used/free list link. Its meaning (which
// list it threads through) depends on whether the page is currently
// used or free; the buffer pool never inspects it directly.
func (p *Page) NextPageNumber() PageID { return p.header.nextPageNumber }

func (p *Page) setNextPageNumber(n PageID) { p.header.nextPageNumber = n }

// IsUsed reports whether the page currently holds live data, as
// opposed to sitting on the free list.
func (p *Page) IsUsed() bool { return p.header.used }

// initialize clears a page's data region and marks it unused, as part
// of moving it onto the free list.
func (p *Page) initialize() {
	p.header.used = false
	var zero [DataSize]byte
	p.Data = zero
}

func (p *Page) serialize() []byte {
	buf := make([]byte, PageSize)
	p.header.encode(buf[:PageHeaderSize])
	copy(buf[PageHeaderSize:], p.Data[:])
	return buf
}

func deserializePage(buf []byte) *Page {
	p := &Page{header: decodeHeader(buf[:PageHeaderSize])}
	copy(p.Data[:], buf[PageHeaderSize:])
	return p
}

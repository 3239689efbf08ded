package storage

import "fmt"

// frameDescriptor is the per-frame bookkeeping record the buffer pool
// keeps alongside each frame's page bytes: which (file, page) the
// frame currently holds, how many callers have it pinned, whether its
// contents differ from disk, and the clock sweep's reference bit. Its
// frame number is fixed for the descriptor's lifetime; everything else
// is rewritten on every occupy/clear.
type frameDescriptor struct {
	frameNo FrameID // immutable: this descriptor's fixed position in the pool

	file   *File
	pageNo PageID
	pinCnt int
	dirty  bool
	valid  bool
	refbit bool
	data   [DataSize]byte
}

func newFrameDescriptor(frameNo FrameID) *frameDescriptor {
	d := &frameDescriptor{frameNo: frameNo}
	d.clear()
	return d
}

// empty reports whether the frame is not currently holding any page.
func (d *frameDescriptor) empty() bool { return !d.valid }

// clear resets a descriptor to its unoccupied state, invalidating
// whatever page it used to hold without writing anything back.
func (d *frameDescriptor) clear() {
	d.file = nil
	d.pageNo = InvalidPageID
	d.pinCnt = 0
	d.dirty = false
	d.valid = false
	d.refbit = false
	d.data = [DataSize]byte{}
}

// occupy marks the frame as holding (file, pageNo) with a single
// initial pin, a set reference bit and a clean state, following the
// original implementation's Set(): a freshly loaded or allocated page
// always starts pinned once by its caller.
func (d *frameDescriptor) occupy(file *File, pageNo PageID) {
	d.file = file
	d.pageNo = pageNo
	d.pinCnt = 1
	d.dirty = false
	d.valid = true
	d.refbit = true
}

func (d *frameDescriptor) pin() { d.pinCnt++ }

// unpin decrements the pin count, failing with ErrPageNotPinned if it
// is already zero.
func (d *frameDescriptor) unpin() error {
	if d.pinCnt <= 0 {
		return fmt.Errorf("unpin frame %d: %w", d.frameNo, ErrPageNotPinned)
	}
	d.pinCnt--
	return nil
}

func (d *frameDescriptor) String() string {
	name := "<none>"
	if d.file != nil {
		name = d.file.Filename()
	}
	return fmt.Sprintf("frame=%d file=%s page=%d valid=%t pinCnt=%d dirty=%t refbit=%t",
		d.frameNo, name, d.pageNo, d.valid, d.pinCnt, d.dirty, d.refbit)
}

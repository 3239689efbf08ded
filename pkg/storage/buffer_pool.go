package storage

import "fmt"

// BufStats tracks the pool's lifetime access counters.
type BufStats struct {
	Accesses   int
	DiskReads  int
	DiskWrites int
}

// BufferPool manages a fixed-size cache of pages held in memory,
// backed by one or more paged files, using a clock-sweep (second
// chance) eviction policy. It is single-threaded: callers must not
// share a pool across goroutines.
type BufferPool struct {
	descriptors []*frameDescriptor
	index       *hashTable
	clockHand   int
	stats       BufStats
}

// NewBufferPool constructs a pool of numBufs frames, all initially
// empty.
func NewBufferPool(numBufs int) *BufferPool {
	descriptors := make([]*frameDescriptor, numBufs)
	for i := range descriptors {
		descriptors[i] = newFrameDescriptor(FrameID(i))
	}
	return &BufferPool{
		descriptors: descriptors,
		index:       newHashTable(numBufs),
		clockHand:   numBufs - 1,
	}
}

// Stats returns a snapshot of the pool's access counters.
func (bp *BufferPool) Stats() BufStats { return bp.stats }

func (bp *BufferPool) numBufs() int { return len(bp.descriptors) }

func (bp *BufferPool) advanceClock() {
	bp.clockHand = (bp.clockHand + 1) % bp.numBufs()
}

// allocFrame runs the clock sweep to find a frame to (re)use, evicting
// whatever it currently holds. It scans at most 2*numBufs advances: one
// full pass clears every unpinned frame's reference bit, so a second
// pass is guaranteed to find a victim unless every frame is pinned.
func (bp *BufferPool) allocFrame() (FrameID, error) {
	maxAdvances := 2 * bp.numBufs()
	for i := 0; i < maxAdvances; i++ {
		bp.advanceClock()
		d := bp.descriptors[bp.clockHand]

		switch {
		case d.empty():
			return d.frameNo, nil
		case d.pinCnt > 0:
			continue
		case d.refbit:
			d.refbit = false
			continue
		case !d.dirty:
			if err := bp.index.remove(d.file.ID(), d.pageNo); err != nil {
				return 0, err
			}
			d.clear()
			return d.frameNo, nil
		default:
			if err := bp.writeBack(d); err != nil {
				return 0, err
			}
			if err := bp.index.remove(d.file.ID(), d.pageNo); err != nil {
				return 0, err
			}
			d.clear()
			return d.frameNo, nil
		}
	}
	return 0, fmt.Errorf("alloc frame: %w", ErrBufferExceeded)
}

func (bp *BufferPool) writeBack(d *frameDescriptor) error {
	p := newPage()
	p.setPageNumber(d.pageNo)
	p.header.used = true
	p.Data = d.data
	if err := d.file.WritePage(p); err != nil {
		return err
	}
	d.dirty = false
	bp.stats.DiskWrites++
	return nil
}

// ReadPage returns a pinned view over (file, pageNo), reading it from
// disk into a frame on a cache miss.
func (bp *BufferPool) ReadPage(file *File, pageNo PageID) (*PageView, error) {
	if file == nil {
		return nil, fmt.Errorf("read page %d: %w", pageNo, ErrInvalidPage)
	}
	bp.stats.Accesses++

	if frameNo, err := bp.index.lookup(file.ID(), pageNo); err == nil {
		d := bp.descriptors[frameNo]
		d.refbit = true
		d.pin()
		return newPageView(bp, d), nil
	}

	frameNo, err := bp.allocFrame()
	if err != nil {
		return nil, err
	}
	p, err := file.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	bp.stats.DiskReads++

	d := bp.descriptors[frameNo]
	d.occupy(file, pageNo)
	d.data = p.Data
	if err := bp.index.insert(file.ID(), pageNo, frameNo); err != nil {
		d.clear()
		return nil, err
	}
	return newPageView(bp, d), nil
}

// AllocPage asks file to allocate a new page, loads it into a frame,
// and returns its assigned page number and a pinned mutable view. The
// frame is not dirty on entry; only the file store's own allocation
// write touches disk.
func (bp *BufferPool) AllocPage(file *File) (PageID, *MutablePageView, error) {
	if file == nil {
		return InvalidPageID, nil, fmt.Errorf("alloc page: %w", ErrInvalidPage)
	}
	frameNo, err := bp.allocFrame()
	if err != nil {
		return InvalidPageID, nil, err
	}
	p, err := file.AllocatePage()
	if err != nil {
		return InvalidPageID, nil, err
	}
	bp.stats.DiskReads++

	d := bp.descriptors[frameNo]
	d.occupy(file, p.PageNumber())
	d.data = p.Data
	if err := bp.index.insert(file.ID(), p.PageNumber(), frameNo); err != nil {
		d.clear()
		return InvalidPageID, nil, err
	}
	return p.PageNumber(), newMutablePageView(bp, d), nil
}

// UnpinPage decrements the pin count on (file, pageNo), failing with
// ErrHashNotFound if it is not resident and ErrPageNotPinned if its pin
// count is already zero. If dirtyFlag is true the frame's dirty bit is
// set; it is never cleared here.
func (bp *BufferPool) UnpinPage(file *File, pageNo PageID, dirtyFlag bool) error {
	if file == nil {
		return fmt.Errorf("unpin page %d: %w", pageNo, ErrInvalidPage)
	}
	frameNo, err := bp.index.lookup(file.ID(), pageNo)
	if err != nil {
		return err
	}
	d := bp.descriptors[frameNo]
	if err := d.unpin(); err != nil {
		return err
	}
	if dirtyFlag {
		d.dirty = true
	}
	return nil
}

// FlushFile writes back every dirty frame belonging to file and clears
// all of that file's residency from the pool. It fails with
// ErrPagePinned if any of the file's frames are still pinned, or
// ErrBadBuffer if the index names a frame that is no longer valid.
func (bp *BufferPool) FlushFile(file *File) error {
	for _, d := range bp.descriptors {
		if d.file != file {
			continue
		}
		if !d.valid {
			return fmt.Errorf("flush %q: %w", file.Filename(), ErrBadBuffer)
		}
		if d.pinCnt != 0 {
			return fmt.Errorf("flush %q page %d: %w", file.Filename(), d.pageNo, ErrPagePinned)
		}
		if d.dirty {
			if err := bp.writeBack(d); err != nil {
				return err
			}
		}
		if err := bp.index.remove(d.file.ID(), d.pageNo); err != nil {
			return err
		}
		d.clear()
	}
	return nil
}

// DisposePage discards any resident copy of (file, pageNo) without
// writing it back, then asks the file store to delete the page. A
// non-resident page is not an error: disposing a page that was never
// read is permitted.
func (bp *BufferPool) DisposePage(file *File, pageNo PageID) error {
	if file == nil {
		return fmt.Errorf("dispose page %d: %w", pageNo, ErrInvalidPage)
	}
	if frameNo, err := bp.index.lookup(file.ID(), pageNo); err == nil {
		d := bp.descriptors[frameNo]
		if err := bp.index.remove(file.ID(), pageNo); err != nil {
			return err
		}
		d.clear()
	}
	return file.DeletePage(pageNo)
}

// PrintSelf returns a multi-line snapshot of every frame's descriptor,
// following the original implementation's debugging dump.
func (bp *BufferPool) PrintSelf() string {
	out := fmt.Sprintf("clockHand=%d numBufs=%d\n", bp.clockHand, bp.numBufs())
	for _, d := range bp.descriptors {
		out += d.String() + "\n"
	}
	return out
}

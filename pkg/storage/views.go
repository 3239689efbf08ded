package storage

// PageView is an immutable, scoped handle over a resident page. It
// guarantees exactly one unpin: call Release when done, or let it be
// released by whatever scope constructed it. A PageView must not be
// used after Release.
type PageView struct {
	pool     *BufferPool
	desc     *frameDescriptor
	released bool
}

func newPageView(pool *BufferPool, desc *frameDescriptor) *PageView {
	return &PageView{pool: pool, desc: desc}
}

// Data returns the page's data region. The returned slice aliases the
// frame's storage and must not be retained past Release.
func (v *PageView) Data() []byte { return v.desc.data[:] }

// PageNumber returns the page number this view is pinned on.
func (v *PageView) PageNumber() PageID { return v.desc.pageNo }

// Release unpins the frame without marking it dirty. Calling Release
// more than once is a no-op: only the first call unpins.
func (v *PageView) Release() error {
	if v.released {
		return nil
	}
	v.released = true
	return v.pool.UnpinPage(v.desc.file, v.desc.pageNo, false)
}

// MutablePageView is a mutable, scoped handle over a resident page. On
// Release it unpins the frame as dirty, regardless of whether the
// caller actually wrote to it, matching the original implementation's
// "dirty intent" by type.
type MutablePageView struct {
	pool     *BufferPool
	desc     *frameDescriptor
	released bool
}

func newMutablePageView(pool *BufferPool, desc *frameDescriptor) *MutablePageView {
	return &MutablePageView{pool: pool, desc: desc}
}

// Data returns the page's data region for in-place mutation. The
// returned slice aliases the frame's storage and must not be retained
// past Release.
func (v *MutablePageView) Data() []byte { return v.desc.data[:] }

// PageNumber returns the page number this view is pinned on.
func (v *MutablePageView) PageNumber() PageID { return v.desc.pageNo }

// AsImmutable returns a second, independent PageView over the same
// frame, pinning it again. Releasing the mutable view does not affect
// the returned immutable one, and vice versa.
func (v *MutablePageView) AsImmutable() *PageView {
	v.desc.pin()
	v.desc.refbit = true
	return newPageView(v.pool, v.desc)
}

// Release unpins the frame, marking it dirty. Calling Release more
// than once is a no-op: only the first call unpins.
func (v *MutablePageView) Release() error {
	if v.released {
		return nil
	}
	v.released = true
	return v.pool.UnpinPage(v.desc.file, v.desc.pageNo, true)
}

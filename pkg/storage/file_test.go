package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func tempFilePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestCreateFileInitialHeader(t *testing.T) {
	f, err := createFile(tempFilePath(t))
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	h, err := f.readHeader()
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if h.NumPages != 0 || h.FirstUsedPage != InvalidPageID || h.NumFreePages != 0 || h.FirstFreePage != InvalidPageID {
		t.Errorf("unexpected initial header: %+v", h)
	}
}

func TestCreateFileAlreadyExists(t *testing.T) {
	path := tempFilePath(t)
	f, err := createFile(path)
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	if _, err := createFile(path); !errors.Is(err, ErrFileExists) {
		t.Errorf("expected ErrFileExists, got %v", err)
	}
}

func TestOpenFileNotFound(t *testing.T) {
	if _, err := openFile(tempFilePath(t)); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestAllocateReadWritePage(t *testing.T) {
	f, err := createFile(tempFilePath(t))
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	p, err := f.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if p.PageNumber() != 1 {
		t.Fatalf("expected first page number 1, got %d", p.PageNumber())
	}

	copy(p.Data[:], []byte("hello"))
	if err := f.WritePage(p); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got, err := f.ReadPage(1)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if string(got.Data[:5]) != "hello" {
		t.Errorf("got %q, want %q", got.Data[:5], "hello")
	}
}

func TestReadPageOutOfRange(t *testing.T) {
	f, err := createFile(tempFilePath(t))
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	if _, err := f.ReadPage(1); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage for unallocated page, got %v", err)
	}
	if _, err := f.ReadPage(InvalidPageID); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage for page 0, got %v", err)
	}
}

func TestDeletePageThenReadFails(t *testing.T) {
	f, err := createFile(tempFilePath(t))
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	p, err := f.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if err := f.DeletePage(p.PageNumber()); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if _, err := f.ReadPage(p.PageNumber()); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage after delete, got %v", err)
	}
}

func TestAllocateReusesFreedPage(t *testing.T) {
	f, err := createFile(tempFilePath(t))
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	p1, err := f.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage 1: %v", err)
	}
	if _, err := f.AllocatePage(); err != nil {
		t.Fatalf("AllocatePage 2: %v", err)
	}

	if err := f.DeletePage(p1.PageNumber()); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}

	reused, err := f.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage 3: %v", err)
	}
	if reused.PageNumber() != p1.PageNumber() {
		t.Errorf("expected reused page number %d, got %d", p1.PageNumber(), reused.PageNumber())
	}

	header, err := f.readHeader()
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if header.NumFreePages != 0 {
		t.Errorf("expected free list empty after reuse, got %d free pages", header.NumFreePages)
	}
}

func TestAllocateSplicesAscendingIntoUsedList(t *testing.T) {
	f, err := createFile(tempFilePath(t))
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.close()

	var pages []PageID
	for i := 0; i < 3; i++ {
		p, err := f.AllocatePage()
		if err != nil {
			t.Fatalf("AllocatePage %d: %v", i, err)
		}
		pages = append(pages, p.PageNumber())
	}

	// Free the middle page, then reallocate: it should come back with
	// the same number and be spliced back between its old neighbors.
	if err := f.DeletePage(pages[1]); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if _, err := f.AllocatePage(); err != nil {
		t.Fatalf("AllocatePage reuse: %v", err)
	}

	header, err := f.readHeader()
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}

	var seen []PageID
	cur := header.FirstUsedPage
	for cur != InvalidPageID {
		seen = append(seen, cur)
		h, err := f.readPageHeaderOnly(cur)
		if err != nil {
			t.Fatalf("readPageHeaderOnly: %v", err)
		}
		cur = h.nextPageNumber
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 pages in used list, got %d: %v", len(seen), seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("used list not ascending: %v", seen)
		}
	}
}

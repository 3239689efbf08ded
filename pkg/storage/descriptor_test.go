package storage

import (
	"errors"
	"testing"
)

func TestFrameDescriptorStartsEmpty(t *testing.T) {
	d := newFrameDescriptor(3)
	if !d.empty() {
		t.Error("expected a fresh descriptor to be empty")
	}
	if d.pinCnt != 0 || d.dirty || d.refbit || d.file != nil {
		t.Errorf("expected zero-value empty descriptor, got %+v", d)
	}
	if d.frameNo != 3 {
		t.Errorf("expected frameNo 3, got %d", d.frameNo)
	}
}

func TestFrameDescriptorOccupy(t *testing.T) {
	d := newFrameDescriptor(0)
	d.occupy(&File{}, 7)
	if d.empty() {
		t.Error("expected occupied descriptor to not be empty")
	}
	if d.pinCnt != 1 {
		t.Errorf("expected pinCnt 1 after occupy, got %d", d.pinCnt)
	}
	if d.dirty {
		t.Error("expected occupy to leave descriptor clean")
	}
	if !d.refbit {
		t.Error("expected occupy to set refbit")
	}
	if d.pageNo != 7 {
		t.Errorf("expected pageNo 7, got %d", d.pageNo)
	}
}

func TestFrameDescriptorClearResetsInvariants(t *testing.T) {
	d := newFrameDescriptor(0)
	d.occupy(&File{}, 7)
	d.dirty = true
	d.refbit = true

	d.clear()

	if !d.empty() {
		t.Error("expected cleared descriptor to be empty")
	}
	if d.pinCnt != 0 || d.dirty || d.refbit || d.file != nil {
		t.Errorf("clear left a non-zero-value descriptor: %+v", d)
	}
}

func TestFrameDescriptorUnpinNotPinned(t *testing.T) {
	d := newFrameDescriptor(0)
	if err := d.unpin(); !errors.Is(err, ErrPageNotPinned) {
		t.Errorf("expected ErrPageNotPinned, got %v", err)
	}
}

func TestFrameDescriptorPinUnpinBalance(t *testing.T) {
	d := newFrameDescriptor(0)
	d.occupy(&File{}, 1) // pinCnt = 1
	d.pin()              // pinCnt = 2
	if d.pinCnt != 2 {
		t.Fatalf("expected pinCnt 2, got %d", d.pinCnt)
	}
	if err := d.unpin(); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if err := d.unpin(); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if d.pinCnt != 0 {
		t.Errorf("expected pinCnt 0, got %d", d.pinCnt)
	}
	if err := d.unpin(); !errors.Is(err, ErrPageNotPinned) {
		t.Errorf("expected ErrPageNotPinned on over-unpin, got %v", err)
	}
}

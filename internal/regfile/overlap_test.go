package regfile

import "testing"

func TestFileOffset_MergedMode(t *testing.T) {
	half := Ref{File: FileHalf, Num: 3}
	f, off := FileOffset(half, true)
	if f != FileFull || off != 6 {
		t.Fatalf("FileOffset(merged) = (%s, %d), want (full, 6)", f, off)
	}
	f, off = FileOffset(half, false)
	if f != FileHalf || off != 3 {
		t.Fatalf("FileOffset(disjoint) = (%s, %d), want (half, 3)", f, off)
	}
}

func TestOverlap_DisjointFilesNeverOverlap(t *testing.T) {
	full := Ref{File: FileFull, Num: 0, Size: 4}
	half := Ref{File: FileHalf, Num: 0, Size: 4}
	if Overlap(full, half, false) {
		t.Fatal("full and half must not overlap when files are disjoint")
	}
}

func TestOverlap_MergedModeFullAndHalfOverlap(t *testing.T) {
	full := Ref{File: FileFull, Num: 1, Size: 1} // occupies full-file offset 1
	half := Ref{File: FileHalf, Num: 2, Size: 1} // maps to full-file offset 4
	if Overlap(full, half, true) {
		t.Fatal("unexpected overlap")
	}
	half2 := Ref{File: FileHalf, Num: 0}
	fullAt0 := Ref{File: FileFull, Num: 0}
	if !Overlap(half2, fullAt0, true) {
		t.Fatal("half reg 0 should overlap full reg 0 in merged mode")
	}
}

func TestSet_MarkClearOverlaps(t *testing.T) {
	s := NewSet()
	s.Mark(FileFull, 4, 2)
	if !s.Overlaps(FileFull, 3, 2) {
		t.Fatal("expected overlap with marked range")
	}
	if s.Overlaps(FileFull, 10, 1) {
		t.Fatal("unexpected overlap with untouched range")
	}
	s.Clear(FileFull, 4, 2)
	if s.Overlaps(FileFull, 4, 2) {
		t.Fatal("expected no overlap after clear")
	}
}

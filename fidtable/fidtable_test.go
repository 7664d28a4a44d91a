package fidtable

import (
	"errors"
	"testing"

	"unpfs.dev/p9/wire"
)

func TestInsertGetRemove(t *testing.T) {
	tbl := New()

	fid, err := tbl.Insert(1, "/mnt/root")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if fid.RealPath() != "/mnt/root" {
		t.Fatalf("RealPath: got %q", fid.RealPath())
	}

	got, err := tbl.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != fid {
		t.Fatal("Get returned a different *Fid than Insert")
	}

	removed, err := tbl.Remove(1)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != fid {
		t.Fatal("Remove returned a different *Fid")
	}

	if _, err := tbl.Get(1); !errors.Is(err, ErrBadFid) {
		t.Fatalf("Get after Remove: got %v, want ErrBadFid", err)
	}
}

func TestInsertRejectsDuplicateAndNofid(t *testing.T) {
	tbl := New()
	if _, err := tbl.Insert(1, "/a"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := tbl.Insert(1, "/b"); !errors.Is(err, ErrBadFid) {
		t.Fatalf("duplicate Insert: got %v, want ErrBadFid", err)
	}
	if _, err := tbl.Insert(wire.NOFID, "/c"); !errors.Is(err, ErrBadFid) {
		t.Fatalf("NOFID Insert: got %v, want ErrBadFid", err)
	}
}

func TestEachVisitsEveryFid(t *testing.T) {
	tbl := New()
	tbl.Insert(1, "/a")
	tbl.Insert(2, "/b")
	tbl.Insert(3, "/c")

	seen := make(map[uint32]string)
	tbl.Each(func(fid uint32, f *Fid) {
		seen[fid] = f.RealPath()
	})
	if len(seen) != 3 {
		t.Fatalf("Each visited %d fids, want 3", len(seen))
	}
	if seen[2] != "/b" {
		t.Fatalf("fid 2: got %q, want /b", seen[2])
	}
}

func TestFidSetRealPathAndFile(t *testing.T) {
	f := &Fid{}
	f.SetRealPath("/a/b")
	if f.RealPath() != "/a/b" {
		t.Fatalf("RealPath: got %q", f.RealPath())
	}

	if f.File() != nil {
		t.Fatal("new Fid should have no open file")
	}
	if err := f.CloseFile(); err != nil {
		t.Fatalf("CloseFile on never-opened fid: %v", err)
	}
}

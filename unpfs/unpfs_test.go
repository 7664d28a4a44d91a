package unpfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"

	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

func newTestUnpfs(t *testing.T) (*Unpfs, string) {
	t.Helper()
	root := t.TempDir()
	u, err := New(root, &timeutil.SimulatedClock{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return u, root
}

func attachFid(t *testing.T, u *Unpfs) *fidtable.Fid {
	t.Helper()
	_, path, err := u.Attach("nobody", "")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	tbl := fidtable.New()
	fid, err := tbl.Insert(1, path)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return fid
}

func TestAttachReturnsRootQid(t *testing.T) {
	u, root := newTestUnpfs(t)
	qid, path, err := u.Attach("nobody", "")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if path != root {
		t.Fatalf("path: got %q, want %q", path, root)
	}
	if qid.Type != wire.QTDIR {
		t.Fatalf("qid.Type: got %v, want QTDIR", qid.Type)
	}
}

func TestWalkResolvesChildren(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "file"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)

	qids, path, err := u.Walk(fid, []string{"sub", "file"})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(qids) != 2 {
		t.Fatalf("len(qids): got %d, want 2", len(qids))
	}
	if path != filepath.Join(root, "sub", "file") {
		t.Fatalf("path: got %q", path)
	}
}

func TestWalkPartialOnMissingComponent(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)

	qids, _, err := u.Walk(fid, []string{"sub", "ghost", "more"})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(qids) != 1 {
		t.Fatalf("len(qids): got %d, want 1 (partial walk)", len(qids))
	}
}

func TestWalkFirstComponentMissingFails(t *testing.T) {
	u, _ := newTestUnpfs(t)
	fid := attachFid(t, u)

	if _, _, err := u.Walk(fid, []string{"ghost"}); err == nil {
		t.Fatal("expected an error walking to a nonexistent first component")
	}
}

func TestWalkDotDotClampsAtRoot(t *testing.T) {
	u, root := newTestUnpfs(t)
	fid := attachFid(t, u)

	qids, path, err := u.Walk(fid, []string{".."})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(qids) != 1 {
		t.Fatalf("len(qids): got %d, want 1", len(qids))
	}
	if path != root {
		t.Fatalf("path: got %q, want root %q (escape must be clamped)", path, root)
	}
}

func TestCreateRebindsFid(t *testing.T) {
	u, root := newTestUnpfs(t)
	fid := attachFid(t, u)

	_, _, err := u.Create(fid, "newfile", wire.OpenRdwr, 0o644, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fid.RealPath() != filepath.Join(root, "newfile") {
		t.Fatalf("fid not rebound to new file: %q", fid.RealPath())
	}
	if fid.File() == nil {
		t.Fatal("Create should leave the new file open on fid")
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	u, _ := newTestUnpfs(t)
	fid := attachFid(t, u)
	if _, _, err := u.Create(fid, "data", wire.OpenRdwr, 0o644, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := u.Write(fid, 0, []byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("Write n: got %d, want 5", n)
	}

	got, err := u.Read(fid, 0, 5)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Read: got %q, want %q", got, "hello")
	}
}

func TestReadWithoutOpenFails(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)
	fid.SetRealPath(filepath.Join(root, "f"))

	if _, err := u.Read(fid, 0, 1); err == nil {
		t.Fatal("Read on an un-opened fid should fail")
	}
}

func TestGetAttrReportsFileTypeBits(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.Mkdir(filepath.Join(root, "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)
	qids, _, err := u.Walk(fid, []string{"d"})
	if err != nil || len(qids) != 1 {
		t.Fatalf("Walk: %v %v", qids, err)
	}
	fid.SetRealPath(filepath.Join(root, "d"))

	stat, err := u.GetAttr(fid, wire.GetattrBasic)
	if err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	if stat.Mode&modeFmt != modeDir {
		t.Fatalf("Mode file-type bits: got %o, want dir", stat.Mode&modeFmt)
	}
}

func TestSetAttrModeChangesHostPermissions(t *testing.T) {
	u, root := newTestUnpfs(t)
	path := filepath.Join(root, "f")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)
	fid.SetRealPath(path)
	if _, err := u.Cache.GetOrCreate(path); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	err := u.SetAttr(fid, wire.SetattrMode, wire.SetAttr{Mode: 0o600})
	if err != nil {
		t.Fatalf("SetAttr: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("host perm: got %o, want 0600", fi.Mode().Perm())
	}
}

func TestSetAttrSizeTruncates(t *testing.T) {
	u, root := newTestUnpfs(t)
	path := filepath.Join(root, "f")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)
	fid.SetRealPath(path)

	if err := u.SetAttr(fid, wire.SetattrSize, wire.SetAttr{Size: 5}); err != nil {
		t.Fatalf("SetAttr: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("truncated content: got %q", data)
	}
}

func TestSetAttrMtimeNowUsesInjectedClock(t *testing.T) {
	u, root := newTestUnpfs(t)
	path := filepath.Join(root, "f")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)
	fid.SetRealPath(path)

	clock := u.Clock.(*timeutil.SimulatedClock)
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock.SetTime(want)

	if err := u.SetAttr(fid, wire.SetattrMtime, wire.SetAttr{}); err != nil {
		t.Fatalf("SetAttr: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !fi.ModTime().Equal(want) {
		t.Fatalf("mtime: got %v, want %v (the clock's current time)", fi.ModTime(), want)
	}
}

func TestMkdirReadDirRoundTrips(t *testing.T) {
	u, root := newTestUnpfs(t)
	dirFid := attachFid(t, u)
	if _, err := u.Mkdir(dirFid, "sub", 0o755, 0); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b"), []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	subFid := attachFid(t, u)
	subFid.SetRealPath(filepath.Join(root, "sub"))

	first, err := u.ReadDir(subFid, 0, 4096)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(first) < 2 || first[0].Name != "." || first[1].Name != ".." {
		t.Fatalf("ReadDir did not start with dot entries: %+v", first)
	}

	names := map[string]bool{}
	for _, e := range first {
		names[e.Name] = true
	}
	if !names["a"] || !names["b"] {
		t.Fatalf("ReadDir missing real entries: %+v", first)
	}
}

func TestReadDirResumesAfterCookie(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.WriteFile(filepath.Join(root, "a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b"), []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)

	first, err := u.ReadDir(fid, 0, 4096)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	last := first[len(first)-1]

	second, err := u.ReadDir(fid, last.Offset, 4096)
	if err != nil {
		t.Fatalf("ReadDir (resume): %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no more entries after resuming past the last one, got %+v", second)
	}
}

func TestReadDirCountSmallerThanOneEntryReturnsNoneAndResumes(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.WriteFile(filepath.Join(root, "a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)

	entries, err := u.ReadDir(fid, 0, directoryEntrySize(".")-1)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries: got %d, want 0 when count is smaller than one dirent", len(entries))
	}

	more, err := u.ReadDir(fid, 0, 4096)
	if err != nil {
		t.Fatalf("ReadDir (retry with larger count): %v", err)
	}
	if len(more) == 0 {
		t.Fatal("retrying the same offset with a larger count should make progress")
	}
}

func TestRenameAtMovesFileAndPreservesInode(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.WriteFile(filepath.Join(root, "old"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirFid := attachFid(t, u)
	oldVa, err := u.Cache.GetOrCreate(filepath.Join(root, "old"))
	if err != nil {
		t.Fatal(err)
	}

	if err := u.RenameAt(dirFid, "old", dirFid, "new"); err != nil {
		t.Fatalf("RenameAt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "new")); err != nil {
		t.Fatalf("renamed file missing: %v", err)
	}
	newVa, err := u.Cache.GetOrCreate(filepath.Join(root, "new"))
	if err != nil {
		t.Fatal(err)
	}
	if newVa.Inode != oldVa.Inode {
		t.Fatalf("inode changed across rename: %d vs %d", newVa.Inode, oldVa.Inode)
	}
}

func TestUnlinkAtRemovesFile(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.WriteFile(filepath.Join(root, "gone"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirFid := attachFid(t, u)

	if err := u.UnlinkAt(dirFid, "gone", 0); err != nil {
		t.Fatalf("UnlinkAt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "gone")); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err = %v", err)
	}
}

func TestUnlinkAtNonEmptyDirFails(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.Mkdir(filepath.Join(root, "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "d", "child"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirFid := attachFid(t, u)

	if err := u.UnlinkAt(dirFid, "d", 0); err == nil {
		t.Fatal("expected ENOTEMPTY removing a non-empty directory")
	}
}

func TestReadLink(t *testing.T) {
	u, root := newTestUnpfs(t)
	if err := os.WriteFile(filepath.Join(root, "target"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("target", filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}
	fid := attachFid(t, u)
	fid.SetRealPath(filepath.Join(root, "link"))

	target, err := u.ReadLink(fid)
	if err != nil {
		t.Fatalf("ReadLink: %v", err)
	}
	if target != "target" {
		t.Fatalf("ReadLink: got %q, want %q", target, "target")
	}
}

func TestStatFS(t *testing.T) {
	u, _ := newTestUnpfs(t)
	fid := attachFid(t, u)
	if _, err := u.StatFS(fid); err != nil {
		t.Fatalf("StatFS: %v", err)
	}
}

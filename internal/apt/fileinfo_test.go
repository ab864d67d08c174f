package apt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyWithFileInfo(t *testing.T) {
	t.Parallel()

	data := []byte("hello nexus\n")
	var buf bytes.Buffer

	fi, err := CopyWithFileInfo(&buf, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("copied %q, want %q", buf.Bytes(), data)
	}
	if fi.Size() != uint64(len(data)) {
		t.Errorf("fi.Size() = %d, want %d", fi.Size(), len(data))
	}

	// echo "hello nexus" | md5sum / sha1sum / sha256sum / sha512sum
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"MD5", fi.MD5Sum(), "37e970093ada39803b8e7b3b08f2371c"},
		{"SHA1", fi.SHA1Sum(), "b1c4d43a8636fdfb5478e0fed91c7912a14fe7aa"},
		{"SHA256", fi.SHA256Sum(), "988f797a8eb19b96018af8d80fc2be70f6874690cd311204165da2289d0e584d"},
		{"SHA512", fi.SHA512Sum(), "5e08247f97aaae5cbe755f25184d1dcf3f4f293cfb21ade58204118a432687059643c57ec0287e70d7fd5db4a09302a48bc6bc372a6257663fe94dd84da5fe5c"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%sSum() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestReadFileInfo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "pkg.tar.gz")
	if err := os.WriteFile(p, []byte("0123456789"), 0600); err != nil {
		t.Fatal(err)
	}

	fi, err := ReadFileInfo(p)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 10 {
		t.Errorf("fi.Size() = %d, want 10", fi.Size())
	}

	if _, err := ReadFileInfo(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

package apt

import (
	"crypto/md5"  // #nosec G501 - MD5 is reported alongside the other digests for Nexus asset comparison
	"crypto/sha1" // #nosec G505 - SHA1 is the digest Nexus shows by default
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
)

// Checksums holds the digests Nexus reports for a stored asset.
type Checksums struct {
	MD5    []byte
	SHA1   []byte
	SHA256 []byte
	SHA512 []byte
}

// FileInfo is a set of meta data of a local file about to be uploaded.
type FileInfo struct {
	size      uint64
	checksums Checksums
}

// Size returns the number of bytes of the file body.
func (fi *FileInfo) Size() uint64 {
	return fi.size
}

// MD5Sum returns the hex encoded MD5 digest.
func (fi *FileInfo) MD5Sum() string {
	return hex.EncodeToString(fi.checksums.MD5)
}

// SHA1Sum returns the hex encoded SHA1 digest.
func (fi *FileInfo) SHA1Sum() string {
	return hex.EncodeToString(fi.checksums.SHA1)
}

// SHA256Sum returns the hex encoded SHA256 digest.
func (fi *FileInfo) SHA256Sum() string {
	return hex.EncodeToString(fi.checksums.SHA256)
}

// SHA512Sum returns the hex encoded SHA512 digest.
func (fi *FileInfo) SHA512Sum() string {
	return hex.EncodeToString(fi.checksums.SHA512)
}

// CopyWithFileInfo copies from src to dst until either EOF is reached
// on src or an error occurs, and returns FileInfo calculated while copying.
func CopyWithFileInfo(dst io.Writer, src io.Reader) (*FileInfo, error) {
	md5hash := md5.New()   // #nosec G401
	sha1hash := sha1.New() // #nosec G401
	sha256hash := sha256.New()
	sha512hash := sha512.New()

	w := io.MultiWriter(md5hash, sha1hash, sha256hash, sha512hash, dst)
	n, err := io.Copy(w, src)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		size: uint64(n), // #nosec G115 - io.Copy returns int64, conversion is safe as n >= 0
		checksums: Checksums{
			MD5:    md5hash.Sum(nil),
			SHA1:   sha1hash.Sum(nil),
			SHA256: sha256hash.Sum(nil),
			SHA512: sha512hash.Sum(nil),
		},
	}, nil
}

// ReadFileInfo opens the file at p and calculates its size and checksums.
// The file is closed before returning.
func ReadFileInfo(p string) (*FileInfo, error) {
	f, err := os.Open(p) // #nosec G304 - p comes from the caller's own glob
	if err != nil {
		return nil, errors.Wrap(err, "ReadFileInfo")
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close file", "file", p, "error", err)
		}
	}()

	fi, err := CopyWithFileInfo(io.Discard, f)
	if err != nil {
		return nil, errors.Wrap(err, "ReadFileInfo: "+p)
	}
	return fi, nil
}

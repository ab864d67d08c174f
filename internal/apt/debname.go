package apt

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knqyf263/go-deb-version"
)

// DebName is the package identity encoded in a Debian binary package
// file name of the form name_version_architecture.deb.
type DebName struct {
	Name         string
	Version      string
	Architecture string
}

// String returns the name in apt's name=version:arch notation.
func (d *DebName) String() string {
	return d.Name + "=" + d.Version + ":" + d.Architecture
}

// ParseDebFilename extracts name, version and architecture from the base
// name of filePath. The version must be a valid Debian version string.
//
// Epochs are not part of pool file names, so "1:2.0-1" style versions
// only appear here when a file was named by hand.
func ParseDebFilename(filePath string) (*DebName, error) {
	filename := path.Base(filePath)

	if !strings.HasSuffix(filename, ".deb") {
		return nil, errors.New("not a .deb file: " + filename)
	}

	nameVersionArch := strings.TrimSuffix(filename, ".deb")

	// name_version_architecture
	parts := strings.Split(nameVersionArch, "_")
	if len(parts) < 3 {
		return nil, errors.New("file name is not name_version_arch.deb: " + filename)
	}

	name := parts[0]
	ver := strings.Join(parts[1:len(parts)-1], "_")
	arch := parts[len(parts)-1]
	if name == "" || ver == "" || arch == "" {
		return nil, errors.New("file name is not name_version_arch.deb: " + filename)
	}

	if _, err := version.NewVersion(ver); err != nil {
		return nil, errors.Wrapf(err, "invalid version %q in %s", ver, filename)
	}

	return &DebName{
		Name:         name,
		Version:      ver,
		Architecture: arch,
	}, nil
}

// CompareDebNames orders by package name, then by Debian version.
// Names whose versions fail to parse fall back to string comparison.
func CompareDebNames(a, b *DebName) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	va, errA := version.NewVersion(a.Version)
	vb, errB := version.NewVersion(b.Version)
	if errA != nil || errB != nil {
		return strings.Compare(a.Version, b.Version)
	}
	switch {
	case va.LessThan(vb):
		return -1
	case va.GreaterThan(vb):
		return 1
	}
	return strings.Compare(a.Architecture, b.Architecture)
}

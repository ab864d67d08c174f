package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mirrorctl/nexus-upload/internal/apt"
)

// planItem is a located file. info is filled by hashPlan for dry runs;
// real uploads compute it while streaming the file.
type planItem struct {
	path string
	info *apt.FileInfo
	deb  *apt.DebName // nil unless the run uses StrategyAPT and the name parses
}

// planFiles describes the located files without reading them. For APT
// runs the Debian file names are parsed and duplicate packages reported.
func planFiles(files []string, strategy Strategy) []*planItem {
	items := make([]*planItem, len(files))
	for i, file := range files {
		item := &planItem{path: file}
		if strategy == StrategyAPT {
			deb, err := apt.ParseDebFilename(file)
			if err != nil {
				slog.Warn("file name does not look like name_version_arch.deb", "file", file, "error", err)
			} else {
				item.deb = deb
			}
		}
		items[i] = item
	}

	if strategy == StrategyAPT {
		warnDuplicatePackages(items)
	}
	return items
}

// hashPlan reads every file once to record its size and checksums.
// Files are opened relative to dir and hashed by up to workers goroutines.
func hashPlan(ctx context.Context, dir string, items []*planItem, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fi, err := apt.ReadFileInfo(resolvePath(dir, item.path))
			if err != nil {
				return err
			}
			item.info = fi
			return nil
		})
	}
	return g.Wait()
}

// warnDuplicatePackages logs packages that appear with more than one
// version for the same architecture. Nexus accepts them all, which is
// rarely what a CI job meant to do.
func warnDuplicatePackages(items []*planItem) {
	groups := make(map[string][]*apt.DebName)
	for _, item := range items {
		if item.deb == nil {
			continue
		}
		key := item.deb.Name + ":" + item.deb.Architecture
		groups[key] = append(groups[key], item.deb)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		debs := groups[key]
		if len(debs) < 2 {
			continue
		}
		sort.Slice(debs, func(i, j int) bool {
			return apt.CompareDebNames(debs[i], debs[j]) < 0
		})
		versions := make([]string, 0, len(debs))
		for _, d := range debs {
			versions = append(versions, d.Version)
		}
		slog.Warn("multiple versions of one package matched",
			"package", debs[0].Name, "arch", debs[0].Architecture,
			"versions", strings.Join(versions, ","), "newest", debs[len(debs)-1].Version)
	}
}

// planSize returns the total number of bytes of hashed items.
func planSize(items []*planItem) uint64 {
	var total uint64
	for _, item := range items {
		total += item.info.Size()
	}
	return total
}

// digestAttrs returns the size and digests of fi as slog key-value pairs.
func digestAttrs(fi *apt.FileInfo) []any {
	return []any{
		"size", fi.Size(),
		"md5", fi.MD5Sum(),
		"sha1", fi.SHA1Sum(),
		"sha256", fi.SHA256Sum(),
		"sha512", fi.SHA512Sum(),
	}
}

// printPlan writes a human readable description of the uploads a run
// would perform.
func printPlan(w io.Writer, strategy Strategy, repos []string, items []*planItem) {
	fmt.Fprintf(w, "Strategy:     %s\n", strategy)
	fmt.Fprintf(w, "Repositories: %s\n", strings.Join(repos, ", "))
	fmt.Fprintf(w, "Files:        %d (%s)\n", len(items), formatBytes(planSize(items)))
	fmt.Fprintln(w)
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item.path)
		fmt.Fprintf(w, "    size:   %s\n", formatBytes(item.info.Size()))
		fmt.Fprintf(w, "    md5:    %s\n", item.info.MD5Sum())
		fmt.Fprintf(w, "    sha1:   %s\n", item.info.SHA1Sum())
		fmt.Fprintf(w, "    sha256: %s\n", item.info.SHA256Sum())
		fmt.Fprintf(w, "    sha512: %s\n", item.info.SHA512Sum())
		if item.deb != nil {
			fmt.Fprintf(w, "    package: %s\n", item.deb)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d upload request(s) would be sent.\n", len(items)*len(repos))
}

// formatBytes formats a byte count in human-readable format
func formatBytes(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}

	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	size := float64(bytes)
	unitIndex := 0

	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}

	if unitIndex == 0 {
		return fmt.Sprintf("%d %s", bytes, units[unitIndex])
	}
	return fmt.Sprintf("%.1f %s", size, units[unitIndex])
}

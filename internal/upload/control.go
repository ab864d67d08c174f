package upload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Options are the per-invocation settings of Run.
type Options struct {
	// Repositories are the target repository names, uploaded to in order.
	Repositories []string
	// Pattern is the glob used to locate files; it also selects the Strategy.
	Pattern string
	// Dir, when set, is the directory the pattern is matched in.
	Dir string

	DryRun    bool
	UserAgent string

	// Progress receives progress bars; nil disables them.
	Progress io.Writer
	// Stdout receives the dry-run plan. Defaults to os.Stdout.
	Stdout io.Writer
}

// ParseRepositories splits a comma separated list of repository names.
func ParseRepositories(list string) ([]string, error) {
	var repos []string
	for _, repo := range strings.Split(list, ",") {
		repo = strings.TrimSpace(repo)
		if repo == "" {
			return nil, errors.Newf("empty repository name in %q", list)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// Check validates the options.
func (o *Options) Check() error {
	if len(o.Repositories) == 0 {
		return errors.New("no repositories given")
	}
	for _, repo := range o.Repositories {
		if strings.TrimSpace(repo) == "" {
			return errors.New("empty repository name")
		}
	}
	if o.Pattern == "" {
		return errors.New("no file pattern given")
	}
	return nil
}

// Run locates the files matching opts.Pattern and uploads each of them to
// each repository, repository by repository.
//
// The configuration is checked before anything else. Uploads are
// sequential and the first failure aborts the run; zero matching files
// is only a warning. Files are searched relative to opts.Dir; the
// working directory of the process is left alone.
func Run(ctx context.Context, config *Config, opts *Options) error {
	if err := config.Check(); err != nil {
		return err
	}
	if err := opts.Check(); err != nil {
		return err
	}

	if opts.Dir != "" {
		st, err := os.Stat(opts.Dir)
		if err != nil {
			return errors.Wrap(err, "directory")
		}
		if !st.IsDir() {
			return errors.Newf("%s is not a directory", opts.Dir)
		}
	}
	if root, err := filepath.Abs(opts.Dir); err == nil {
		slog.Warn("searching files", "dir", root, "pattern", opts.Pattern)
	}

	files, err := SearchFiles(opts.Dir, opts.Pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Warn("no files found", "pattern", opts.Pattern)
		return nil
	}
	slog.Warn("files to upload", "files", files)

	strategy := SelectStrategy(opts.Pattern)
	items := planFiles(files, strategy)

	if opts.DryRun {
		if err := hashPlan(ctx, opts.Dir, items, config.ChecksumWorkers); err != nil {
			return errors.Wrap(err, "checksum")
		}
		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		printPlan(stdout, strategy, opts.Repositories, items)
		return nil
	}

	uploader, err := NewUploader(config, opts.UserAgent, opts.Progress)
	if err != nil {
		return err
	}
	timeout := time.Duration(config.Timeout) * time.Second

	uploads := 0
	var total uint64
	for _, repo := range opts.Repositories {
		slog.Warn("uploading files to repository", "repo", repo, "strategy", strategy.String())
		for _, item := range items {
			slog.Info("uploading", "strategy", strategy.String(), "repo", repo, "file", item.path)
			fi, err := uploader.Upload(ctx, strategy, resolvePath(opts.Dir, item.path), repo, timeout)
			if err != nil {
				return errors.Wrapf(err, "repository %s", repo)
			}
			uploads++
			total += fi.Size()
			slog.Info("done", append([]any{"repo", repo, "file", item.path}, digestAttrs(fi)...)...)
		}
	}

	slog.Info("upload complete", "repositories", len(opts.Repositories), "files", len(items),
		"uploads", uploads, "bytes", total)
	return nil
}

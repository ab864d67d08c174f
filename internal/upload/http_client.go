package upload

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mirrorctl/nexus-upload/internal/apt"
)

const (
	// maxErrorBody caps how much of a failed response is kept in UploadError.
	maxErrorBody = 64 << 10

	aptAssetField    = "apt.asset"
	rawAssetField    = "raw.asset1"
	rawDirField      = "raw.directory"
	rawFilenameField = "raw.asset1.filename"
	rawDirectory     = "/"
)

// formField is a plain (non-file) multipart form field.
type formField struct {
	name  string
	value string
}

// Uploader sends components to the Nexus REST API. One Uploader is built
// per run and shared by every (repository, file) pair.
type Uploader struct {
	client    *http.Client
	endpoint  *url.URL
	user      string
	token     string
	userAgent string

	// progress receives upload progress bars; nil disables them.
	progress io.Writer

	open func(name string) (fs.File, error)
}

// NewUploader creates an Uploader from a checked configuration.
func NewUploader(config *Config, userAgent string, progress io.Writer) (*Uploader, error) {
	endpoint, err := config.Nexus.ComponentsURL()
	if err != nil {
		return nil, err
	}
	client, err := clonedTransport(&config.TLS)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "tls"), ErrConfig)
	}
	return &Uploader{
		client:    client,
		endpoint:  endpoint,
		user:      config.Nexus.User,
		token:     config.Nexus.Token,
		userAgent: userAgent,
		progress:  progress,
		open: func(name string) (fs.File, error) {
			return os.Open(name) // #nosec G304 - name comes from the caller's own glob
		},
	}, nil
}

// Upload sends file to repo with the field contract of strategy and
// returns the size and checksums of the bytes that were sent.
func (u *Uploader) Upload(ctx context.Context, strategy Strategy, file, repo string, timeout time.Duration) (*apt.FileInfo, error) {
	switch strategy {
	case StrategyAPT:
		return u.post(ctx, file, repo, aptAssetField, nil, timeout)
	case StrategyRAW:
		return u.post(ctx, file, repo, rawAssetField, rawFields(file), timeout)
	}
	return nil, errors.Newf("unknown upload strategy %d", strategy)
}

// UploadApt uploads a Debian package to an apt repository. The multipart
// body carries the single file part "apt.asset".
func (u *Uploader) UploadApt(ctx context.Context, file, repo string, timeout time.Duration) error {
	_, err := u.post(ctx, file, repo, aptAssetField, nil, timeout)
	return err
}

// UploadRaw uploads a file to the root directory of a raw repository.
// Besides the "raw.asset1" file part, Nexus requires "raw.directory" and
// "raw.asset1.filename" form fields.
func (u *Uploader) UploadRaw(ctx context.Context, file, repo string, timeout time.Duration) error {
	_, err := u.post(ctx, file, repo, rawAssetField, rawFields(file), timeout)
	return err
}

func rawFields(file string) []formField {
	return []formField{
		{name: rawDirField, value: rawDirectory},
		{name: rawFilenameField, value: filepath.Base(file)},
	}
}

// writeResult is the outcome of streaming the multipart body.
type writeResult struct {
	info *apt.FileInfo
	err  error
}

// post streams one multipart POST request. The file is opened right
// before the request is sent and closed on every return path; its
// checksums are computed while it is sent.
func (u *Uploader) post(ctx context.Context, file, repo, assetField string,
	fields []formField, timeout time.Duration) (*apt.FileInfo, error) {
	if strings.TrimSpace(repo) == "" {
		return nil, errors.New("empty repository name")
	}
	if timeout <= 0 {
		return nil, errors.Newf("timeout must be positive, got %s", timeout)
	}

	f, err := u.open(file)
	if err != nil {
		return nil, errors.Wrap(err, "open "+file)
	}
	defer closeFile(f, file)

	var body io.Reader = f
	if u.progress != nil {
		st, err := f.Stat()
		if err != nil {
			return nil, errors.Wrap(err, "stat "+file)
		}
		bar := newProgressBar(u.progress, filepath.Base(file), st.Size())
		defer bar.Finish()
		body = bar.NewProxyReader(f)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := *u.endpoint
	target.RawQuery = url.Values{"repository": {repo}}.Encode()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), pr)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if u.userAgent != "" {
		req.Header.Set("User-Agent", u.userAgent)
	}
	req.SetBasicAuth(u.user, u.token)

	writeDone := make(chan writeResult, 1)
	go func() {
		info, err := writeMultipart(mw, assetField, filepath.Base(file), body, fields)
		_ = pw.CloseWithError(err)
		writeDone <- writeResult{info: info, err: err}
	}()

	resp, err := u.client.Do(req)
	// The transport may stop reading early; unblock the writer and wait
	// for it before the file gets closed.
	_ = pr.Close()
	written := <-writeDone

	if written.err != nil && !errors.Is(written.err, io.ErrClosedPipe) {
		if resp != nil {
			closeRespBody(resp)
		}
		return nil, errors.Wrap(written.err, "read "+file)
	}
	if err != nil {
		return nil, transportError(err)
	}
	defer closeRespBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UploadError{
			Repository: repo,
			File:       file,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	// drain for connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if written.info == nil {
		return nil, errors.Newf("server answered %d before %s was sent completely", resp.StatusCode, file)
	}
	slog.Debug("upload accepted", "repo", repo, "file", file, "status", resp.StatusCode)
	return written.info, nil
}

// writeMultipart writes the plain fields, then the file part, and closes
// mw. It returns the size and checksums of the file part.
func writeMultipart(mw *multipart.Writer, assetField, filename string, content io.Reader, fields []formField) (*apt.FileInfo, error) {
	for _, field := range fields {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile(assetField, filename)
	if err != nil {
		return nil, err
	}
	info, err := apt.CopyWithFileInfo(part, content)
	if err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return info, nil
}

// closeRespBody closes HTTP response body.
func closeRespBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err)
	}
}

func closeFile(f io.Closer, name string) {
	if err := f.Close(); err != nil {
		slog.Warn("failed to close file", "file", name, "error", err)
	}
}

// clonedTransport creates a new HTTP client with the configured TLS settings.
func clonedTransport(tlsConfig *TLSConfig) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = 2
	tr.IdleConnTimeout = 90 * time.Second

	customTLSConfig, err := tlsConfig.BuildTLSConfig()
	if err != nil {
		return nil, err
	}
	tr.TLSClientConfig = customTLSConfig

	return &http.Client{
		Transport: tr,
		Timeout:   0, // no timeout; timeout is controlled by context
	}, nil
}

package pipeline

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
)

// File names inside housing_path.
const (
	ArchiveName = "housing.tgz"
	RawCSVName  = "housing.csv"
)

// Fetcher downloads the raw archive from url and unpacks it into dir.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) error
}

// HTTPFetcher fetches the archive over HTTP and extracts it with
// archive/tar.
type HTTPFetcher struct {
	Client *http.Client
	Logger log.Logger
}

// NewHTTPFetcher returns a fetcher with a bounded client timeout.
func NewHTTPFetcher(logger log.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: 2 * time.Minute},
		Logger: logger,
	}
}

// Fetch downloads url to dir/housing.tgz and extracts it into dir.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	archive := filepath.Join(dir, ArchiveName)

	start := time.Now()
	n, err := f.download(ctx, url, archive)
	if err != nil {
		return err
	}
	f.Logger.Info("raw archive downloaded",
		log.OperationKey, log.OperationFetch,
		log.PathKey, url,
		"bytes", n,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	files, err := ExtractTarGz(archive, dir)
	if err != nil {
		return err
	}
	f.Logger.Info("raw archive extracted", log.PathKey, dir, "files", files)
	return nil
}

func (f *HTTPFetcher) download(ctx context.Context, url, dst string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "build request for %s", url)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf("download %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ArchiveName+".tmp-*")
	if err != nil {
		return 0, errors.Wrap(err, "create temp archive")
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, errors.Wrapf(err, "write %s", dst)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, errors.Wrapf(err, "rename %s", dst)
	}
	return n, nil
}

// ExtractTarGz unpacks regular files and directories of a gzip-compressed
// tarball into dir and returns the number of files written. Entries that
// would land outside dir are rejected.
func ExtractTarGz(archive, dir string) (int, error) {
	fh, err := os.Open(archive)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", archive)
	}
	defer fh.Close()

	gz, err := gzip.NewReader(fh)
	if err != nil {
		return 0, errors.Wrapf(err, "gunzip %s", archive)
	}
	defer gz.Close()

	root := filepath.Clean(dir) + string(os.PathSeparator)
	tr := tar.NewReader(gz)
	files := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return files, errors.Wrapf(err, "read %s", archive)
		}

		target := filepath.Join(dir, hdr.Name)
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return files, errors.NewValueError("ExtractTarGz", fmt.Sprintf("entry %q escapes %s", hdr.Name, dir))
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, errors.Wrapf(err, "create %s", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return files, err
			}
			files++
		}
	}
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(out.Close(), "close %s", path)
}

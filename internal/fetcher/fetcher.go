// Package fetcher downloads GeoNames dump files into a local data directory
// and opens them for parsing.
package fetcher

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/metrics"
	"go.uber.org/zap"
)

// ErrDatasetUnavailable is returned when no source could provide a dataset
// and there is no local copy to fall back to.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

// Dataset keys
const (
	Country = "country"
	Region  = "region"
	City    = "city"
	AltName = "alt_name"
)

type fetchResult struct {
	upToDate bool
	err      error
}

// Fetcher keeps a local copy of every dataset up to date.
// Each dataset is fetched at most once per Fetcher.
type Fetcher struct {
	dataDir  string
	baseURLs []string
	files    map[string]string
	client   *http.Client
	logger   *zap.Logger

	mu      sync.Mutex
	fetched map[string]fetchResult
}

// New creates a Fetcher from the import configuration
func New(cfg config.ImportConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		dataDir:  cfg.DataDir,
		baseURLs: cfg.SourceURLs,
		files: map[string]string{
			Country: "countryInfo.txt",
			Region:  "admin1CodesASCII.txt",
			City:    cfg.CityFile,
			AltName: "alternateNames.zip",
		},
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:  logger,
		fetched: make(map[string]fetchResult),
	}
}

// Path returns the local file path of a dataset
func (f *Fetcher) Path(key string) (string, error) {
	name, ok := f.files[key]
	if !ok {
		return "", fmt.Errorf("unknown dataset %q", key)
	}
	return filepath.Join(f.dataDir, name), nil
}

// URLs returns the sources tried for a dataset, in order
func (f *Fetcher) URLs(key string) []string {
	name := f.files[key]
	urls := make([]string, 0, len(f.baseURLs))
	for _, base := range f.baseURLs {
		urls = append(urls, base+name)
	}
	return urls
}

// Fetch makes sure the local copy of the dataset is current. upToDate is
// true when nothing new was downloaded.
func (f *Fetcher) Fetch(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if res, ok := f.fetched[key]; ok {
		return res.upToDate, res.err
	}

	upToDate, err := f.fetch(ctx, key)
	// context cancellation is not a property of the dataset
	if err == nil || !errors.Is(err, ctx.Err()) {
		f.fetched[key] = fetchResult{upToDate: upToDate, err: err}
	}
	return upToDate, err
}

func (f *Fetcher) fetch(ctx context.Context, key string) (bool, error) {
	path, err := f.Path(key)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create data dir: %w", err)
	}

	for _, url := range f.URLs(key) {
		upToDate, err := f.fetchFrom(ctx, url, path)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			f.logger.Warn("Dataset source failed", zap.String("dataset", key), zap.String("url", url), zap.Error(err))
			continue
		}
		if upToDate {
			metrics.RecordDatasetFetch(key, "up_to_date")
			f.logger.Info("Dataset is up to date", zap.String("dataset", key), zap.String("url", url))
		} else {
			metrics.RecordDatasetFetch(key, "downloaded")
			f.logger.Info("Dataset downloaded", zap.String("dataset", key), zap.String("url", url))
		}
		return upToDate, nil
	}

	if _, err := os.Stat(path); err == nil {
		metrics.RecordDatasetFetch(key, "local_copy")
		f.logger.Warn("All sources failed, assuming local copy is up to date",
			zap.String("dataset", key), zap.String("path", path))
		return true, nil
	}

	metrics.RecordDatasetFetch(key, "failed")
	return false, fmt.Errorf("%s: %w", key, ErrDatasetUnavailable)
}

func (f *Fetcher) fetchFrom(ctx context.Context, url, path string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); strings.Contains(mediaType, "html") {
		return false, fmt.Errorf("HTTP GET %s: unexpected content type %q", url, mediaType)
	}

	lastModified, lmErr := http.ParseTime(resp.Header.Get("Last-Modified"))
	if lmErr == nil && isFresh(path, lastModified, resp.ContentLength) {
		return true, nil
	}

	if err := writeFile(path, resp.Body); err != nil {
		return false, err
	}
	if lmErr == nil {
		if err := os.Chtimes(path, lastModified, lastModified); err != nil {
			return false, fmt.Errorf("failed to set mtime on %s: %w", path, err)
		}
	}
	return false, nil
}

func isFresh(path string, lastModified time.Time, size int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.ModTime().Before(lastModified) && info.Size() == size
}

// writeFile streams body to a temporary file and renames it into place
func writeFile(path string, body io.Reader) error {
	out, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}

	success := false
	defer func() {
		if !success {
			out.Close()
			os.Remove(out.Name())
		}
	}()

	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	if err := os.Rename(out.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	success = true
	return nil
}

// Open returns a reader over the dataset's text content. For zip archives
// it reads the member named like the archive with a .txt extension, or the
// first .txt member.
func (f *Fetcher) Open(key string) (io.ReadCloser, error) {
	path, err := f.Path(key)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".zip") {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return file, nil
	}

	return openZipMember(path)
}

type zipMember struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipMember) Close() error {
	return errors.Join(z.ReadCloser.Close(), z.archive.Close())
}

func openZipMember(path string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	want := strings.TrimSuffix(filepath.Base(path), ".zip") + ".txt"
	var target *zip.File
	for _, file := range r.File {
		if file.Name == want {
			target = file
			break
		}
		if target == nil && strings.HasSuffix(file.Name, ".txt") {
			target = file
		}
	}
	if target == nil {
		r.Close()
		return nil, fmt.Errorf("no txt file found in %s", path)
	}

	rc, err := target.Open()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to open file in zip: %w", err)
	}
	return &zipMember{ReadCloser: rc, archive: r}, nil
}

package testdef

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FetchError reports an unsuccessful retrieval of a test file.
type FetchError struct {
	Path   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d - %s", e.Path, e.Status, http.StatusText(e.Status))
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Lister is implemented by fetchers that can enumerate the available test files.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

type Params struct {
	Category    string
	Subcategory string
}

var paramPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func ValidateParams(p Params) error {
	category := strings.TrimSpace(p.Category)
	subcategory := strings.TrimSpace(p.Subcategory)
	if category == "" || subcategory == "" {
		return ErrMissingParameters
	}
	if !paramPattern.MatchString(category) || !paramPattern.MatchString(subcategory) {
		return ErrInvalidParameters
	}
	return nil
}

// Path returns the conventional location of a test file.
func Path(category, subcategory string) string {
	return path.Join("test", category, subcategory+".json")
}

type Loader struct {
	fetcher Fetcher
}

func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load fetches and validates the definition for p. Nothing is returned unless validation passes.
func (l *Loader) Load(ctx context.Context, p Params) (*Definition, error) {
	if err := ValidateParams(p); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(p.Category)
	subcategory := strings.TrimSpace(p.Subcategory)

	data, err := l.fetcher.Fetch(ctx, Path(category, subcategory))
	if err != nil {
		return nil, err
	}

	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if def.Category == "" {
		def.Category = category
	}
	if def.Subcategory == "" {
		def.Subcategory = subcategory
	}
	return def, nil
}

// DirFetcher reads test files from a filesystem rooted at the site directory.
type DirFetcher struct {
	fsys fs.FS
}

func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{fsys: os.DirFS(root)}
}

func NewFSFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{fsys: fsys}
}

func (f *DirFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{Path: name, Status: http.StatusNotFound}
		}
		return nil, &FetchError{Path: name, Status: http.StatusInternalServerError, Err: err}
	}
	return data, nil
}

func (f *DirFetcher) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := fs.Glob(f.fsys, "test/*/*.json")
	if err != nil {
		return nil, fmt.Errorf("list test files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// HTTPFetcher reads test files from a static file host.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	url := f.baseURL + "/" + strings.TrimLeft(name, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Path: name, Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Path: name, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &FetchError{Path: name, Status: resp.StatusCode, Err: err}
	}
	return data, nil
}

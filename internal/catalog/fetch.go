package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

// Fetcher returns the raw table behind a source locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (matrix.RawTable, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, locator string) (matrix.RawTable, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) (matrix.RawTable, error) {
	return f(ctx, locator)
}

// SheetLister is implemented by fetchers that can enumerate the sheets of a workbook locator.
type SheetLister interface {
	Sheets(ctx context.Context, locator string) ([]string, error)
}

// AllSheets is the locator fragment that expands a workbook into one source per sheet.
const AllSheets = "*"

const defaultMaxSourceBytes = 32 << 20

// SourceFetcher reads CSV text or XLSX workbooks from http(s) URLs or local paths.
type SourceFetcher struct {
	client   *http.Client
	logger   *slog.Logger
	maxBytes int64
}

func NewSourceFetcher(client *http.Client, logger *slog.Logger) *SourceFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceFetcher{client: client, logger: logger, maxBytes: defaultMaxSourceBytes}
}

// locator is a parsed source location. sheet is the workbook sheet named by the '#' fragment.
type locator struct {
	target string
	sheet  string
	remote bool
}

var (
	reSheetsEdit = regexp.MustCompile(`^/spreadsheets/d/([A-Za-z0-9_-]+)(?:/(?:edit|view|htmlview)?)?$`)
	reSheetsPub  = regexp.MustCompile(`^/spreadsheets/d/e/([A-Za-z0-9_-]+)/pub(?:html)?$`)
	reGID        = regexp.MustCompile(`gid=(\d+)`)
)

func parseLocator(raw string) (locator, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(raw)
		if err != nil {
			return locator{}, fmt.Errorf("parse url: %w", err)
		}
		if exp, ok := googleSheetsExport(u); ok {
			return locator{target: exp, remote: true}, nil
		}
		sheet := u.Fragment
		u.Fragment = ""
		return locator{target: u.String(), sheet: sheet, remote: true}, nil
	case strings.HasPrefix(lower, "file://"):
		raw = raw[len("file://"):]
	}
	path, sheet, _ := strings.Cut(raw, "#")
	return locator{target: path, sheet: sheet}, nil
}

// googleSheetsExport rewrites browser links to a Google spreadsheet into its CSV export URL.
func googleSheetsExport(u *url.URL) (string, bool) {
	if !strings.EqualFold(u.Host, "docs.google.com") {
		return "", false
	}
	gid := ""
	if m := reGID.FindStringSubmatch(u.Fragment); m != nil {
		gid = m[1]
	} else if g := u.Query().Get("gid"); g != "" {
		gid = g
	}

	if m := reSheetsPub.FindStringSubmatch(u.Path); m != nil {
		q := url.Values{"output": {"csv"}}
		if gid != "" {
			q.Set("gid", gid)
		}
		return "https://docs.google.com/spreadsheets/d/e/" + m[1] + "/pub?" + q.Encode(), true
	}
	if m := reSheetsEdit.FindStringSubmatch(u.Path); m != nil {
		q := url.Values{"format": {"csv"}}
		if gid != "" {
			q.Set("gid", gid)
		}
		return "https://docs.google.com/spreadsheets/d/" + m[1] + "/export?" + q.Encode(), true
	}
	return "", false
}

func (f *SourceFetcher) Fetch(ctx context.Context, raw string) (matrix.RawTable, error) {
	loc, err := parseLocator(raw)
	if err != nil {
		return matrix.RawTable{}, err
	}
	data, err := f.read(ctx, loc)
	if err != nil {
		return matrix.RawTable{}, err
	}
	if isWorkbook(loc.target, data) {
		return decodeWorkbook(data, loc.sheet)
	}
	if loc.sheet != "" && !loc.remote {
		return matrix.RawTable{}, fmt.Errorf("%s: sheet %q requested from a non-workbook source", loc.target, loc.sheet)
	}
	return decodeCSV(data)
}

// Sheets lists the sheet names of the workbook behind locator.
func (f *SourceFetcher) Sheets(ctx context.Context, raw string) ([]string, error) {
	loc, err := parseLocator(raw)
	if err != nil {
		return nil, err
	}
	data, err := f.read(ctx, loc)
	if err != nil {
		return nil, err
	}
	if !isWorkbook(loc.target, data) {
		return nil, fmt.Errorf("%s is not a workbook", loc.target)
	}
	return workbookSheets(data)
}

func (f *SourceFetcher) read(ctx context.Context, loc locator) ([]byte, error) {
	if !loc.remote {
		data, err := os.ReadFile(filepath.Clean(loc.target))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", loc.target, err)
		}
		return data, nil
	}

	reqID := uuid.New().String()
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	f.logger.Debug("catalog.fetch.request", "req_id", reqID, "url", loc.target)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("catalog.fetch.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("fetch %s: %w", loc.target, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Warn("catalog.fetch.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", loc.target, err)
	}
	f.logger.Debug("catalog.fetch.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: non-2xx status: %d", loc.target, resp.StatusCode)
	}
	return data, nil
}

func isWorkbook(target string, data []byte) bool {
	if constants.IsWorkbookExt(filepath.Ext(strings.SplitN(target, "?", 2)[0])) {
		return true
	}
	return bytes.HasPrefix(data, []byte(constants.ZipMagic))
}

package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

// Source is one (display name, locator) entry of the price list file.
type Source struct {
	Name    string
	Locator string
}

// LineError describes a source list line that matched none of the accepted formats.
type LineError struct {
	Line int
	Text string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: unrecognized source entry %q", e.Line, e.Text)
}

var (
	// Name = "https://..."
	reQuoted = regexp.MustCompile(`^\s*(.+?)\s*=\s*"([^"]+)"\s*$`)
	// Name = https://...
	reEquals = regexp.MustCompile(`^\s*(.+?)\s*=\s*(\S+)\s*$`)
	// Name - https://...  or  Name – https://...
	reDash = regexp.MustCompile(`^\s*(.+?)\s+[-–]\s+(\S+)\s*$`)
)

// ParseSources reads a price list file. Blank lines and lines starting with '#' are ignored.
// Lines that match no format are returned as LineErrors and skipped. An input with no usable
// entry fails with ErrSourceList.
func ParseSources(r io.Reader) ([]Source, []LineError, error) {
	var (
		out  []Source
		bad  []LineError
		scan = bufio.NewScanner(r)
		n    = 0
	)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scan.Scan() {
		n++
		line := strings.TrimSpace(strings.TrimPrefix(scan.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if s, ok := parseSourceLine(line); ok {
			out = append(out, s)
			continue
		}
		bad = append(bad, LineError{Line: n, Text: line})
	}
	if err := scan.Err(); err != nil {
		return nil, bad, common.NewAppError(common.CodeSourceList, "read source list", fmt.Errorf("%w: %w", common.ErrSourceList, err))
	}
	if len(out) == 0 {
		return nil, bad, common.NewAppError(common.CodeSourceList, "source list has no entries", common.ErrSourceList)
	}
	return out, bad, nil
}

func parseSourceLine(line string) (Source, bool) {
	for _, re := range []*regexp.Regexp{reQuoted, reDash, reEquals} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.Trim(strings.TrimSpace(m[1]), `"`)
		loc := strings.Trim(strings.TrimSpace(m[2]), `"`)
		if name == "" || loc == "" {
			return Source{}, false
		}
		return Source{Name: name, Locator: loc}, true
	}
	return Source{}, false
}

// ReadSourceFile opens path and parses it with ParseSources.
func ReadSourceFile(path string) ([]Source, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, common.NewAppError(common.CodeSourceList, "open source list "+path, fmt.Errorf("%w: %w", common.ErrSourceList, err))
	}
	defer f.Close()
	return ParseSources(f)
}

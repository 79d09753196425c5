package matrix

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

// OrientationStrategy decides which table axis holds heights and which holds widths.
//
// Step one adopts the first column as the height axis when more than RowLabelRatio of its body
// values normalize. Otherwise RawTable.RowLabels is taken as an already separated index.
// Step two requires at least ColumnLabelRatio of the header labels to normalize; when they do not,
// the whole table is transposed and both steps run once more.
type OrientationStrategy struct {
	RowLabelRatio    float64
	ColumnLabelRatio float64
}

// DefaultStrategy returns the 60 % / 60 % thresholds.
func DefaultStrategy() OrientationStrategy {
	return OrientationStrategy{RowLabelRatio: 0.6, ColumnLabelRatio: 0.6}
}

// BuildInfo reports what the builder had to do to a table.
type BuildInfo struct {
	Transposed       bool
	SkippedTitleRows int
	DroppedRows      int
	DroppedColumns   int
	DuplicateHeights int
	DuplicateWidths  int
	AbsentCells      int
}

// Builder turns RawTables into PriceMatrices.
type Builder struct {
	strategy OrientationStrategy
	logger   *slog.Logger
}

func NewBuilder(strategy OrientationStrategy, logger *slog.Logger) *Builder {
	if strategy.RowLabelRatio <= 0 {
		strategy.RowLabelRatio = DefaultStrategy().RowLabelRatio
	}
	if strategy.ColumnLabelRatio <= 0 {
		strategy.ColumnLabelRatio = DefaultStrategy().ColumnLabelRatio
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{strategy: strategy, logger: logger}
}

var (
	errEmptyTable   = errors.New("empty table")
	errNoRowAxis    = errors.New("first column is not a height axis and no index column was given")
	errHeaderLabels = errors.New("too few numeric header labels")
	errEmptyAxis    = errors.New("no usable axis labels")
)

// Build produces a PriceMatrix from t, or an ErrIngestion-wrapping error when t cannot be read as one.
// name is only used for logging.
func (b *Builder) Build(name string, t RawTable) (*PriceMatrix, BuildInfo, error) {
	var info BuildInfo

	grid, rowLabels, skipped := clean(t)
	info.SkippedTitleRows = skipped
	if len(grid) == 0 {
		return nil, info, ingestionError(name, errEmptyTable)
	}

	m, firstErr := b.attempt(grid, rowLabels, &info)
	if firstErr == nil {
		return m, info, nil
	}

	b.logger.Debug("matrix.build.transpose",
		"product", name, "reason", firstErr.Error(),
	)
	info = BuildInfo{SkippedTitleRows: skipped, Transposed: true}
	m, secondErr := b.attempt(transpose(grid, rowLabels), nil, &info)
	if secondErr != nil {
		return nil, info, ingestionError(name, fmt.Errorf("as given: %v; transposed: %w", firstErr, secondErr))
	}
	b.logger.Info("matrix.build.transposed", "product", name)
	return m, info, nil
}

func ingestionError(name string, cause error) error {
	return common.NewAppError(common.CodeIngestion,
		fmt.Sprintf("price table %q", name),
		fmt.Errorf("%w: %w", common.ErrIngestion, cause))
}

func (b *Builder) attempt(grid [][]any, rowLabels []any, info *BuildInfo) (*PriceMatrix, error) {
	if len(grid) < 2 {
		return nil, errEmptyTable
	}
	header, body := grid[0], grid[1:]

	firstCol := make([]any, len(body))
	for i, row := range body {
		firstCol[i] = row[0]
	}

	var heightLabels []any
	colStart := 0
	switch {
	case labelRatio(firstCol) > b.strategy.RowLabelRatio:
		heightLabels = firstCol
		colStart = 1
	case len(rowLabels) == len(body):
		heightLabels = rowLabels
	default:
		return nil, errNoRowAxis
	}

	widthLabels := header[colStart:]
	if len(widthLabels) == 0 || labelRatio(widthLabels) < b.strategy.ColumnLabelRatio {
		return nil, errHeaderLabels
	}

	heights, rowIdx, droppedRows, dupRows := axis(heightLabels)
	widths, colIdx, droppedCols, dupCols := axis(widthLabels)
	if len(heights) == 0 || len(widths) == 0 {
		return nil, errEmptyAxis
	}
	info.DroppedRows, info.DuplicateHeights = droppedRows, dupRows
	info.DroppedColumns, info.DuplicateWidths = droppedCols, dupCols

	cells := make([][]Cell, len(heights))
	for hi := range heights {
		src := body[rowIdx[hi]]
		row := make([]Cell, len(widths))
		for wi := range widths {
			if v, ok := Normalize(src[colStart+colIdx[wi]]); ok {
				row[wi] = Cell{Value: int64(v), Valid: true}
			} else {
				info.AbsentCells++
			}
		}
		cells[hi] = row
	}
	return newPriceMatrix(widths, heights, cells), nil
}

// axis normalizes labels, drops the ones that fail (or are negative), keeps the last
// occurrence of a repeated label and sorts ascending. idx maps each kept label to its source position.
func axis(labels []any) (values []int, idx []int, dropped, duplicates int) {
	last := make(map[int]int, len(labels))
	for i, raw := range labels {
		v, ok := Normalize(raw)
		if !ok || v < 0 {
			dropped++
			continue
		}
		if _, seen := last[v]; seen {
			duplicates++
		}
		last[v] = i
	}
	values = make([]int, 0, len(last))
	for v := range last {
		values = append(values, v)
	}
	slices.Sort(values)
	idx = make([]int, len(values))
	for i, v := range values {
		idx[i] = last[v]
	}
	return values, idx, dropped, duplicates
}

func labelRatio(labels []any) float64 {
	if len(labels) == 0 {
		return 0
	}
	ok := 0
	for _, l := range labels {
		if _, valid := Normalize(l); valid {
			ok++
		}
	}
	return float64(ok) / float64(len(labels))
}

// clean pads ragged rows, trims trailing blank rows and columns, and skips leading title rows
// (rows whose cells after the first are all blank) when no separate index is attached.
func clean(t RawTable) ([][]any, []any, int) {
	width := 0
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	grid := make([][]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		padded := make([]any, width)
		copy(padded, row)
		grid = append(grid, padded)
	}

	for len(grid) > 0 && isBlankRow(grid[len(grid)-1], 0) {
		grid = grid[:len(grid)-1]
	}
	for width > 0 && isBlankColumn(grid, width-1) {
		width--
		for i := range grid {
			grid[i] = grid[i][:width]
		}
	}
	if width == 0 {
		return nil, nil, 0
	}

	rowLabels := t.RowLabels
	skipped := 0
	if rowLabels == nil {
		for len(grid) > 1 && width > 1 && isBlankRow(grid[0], 1) {
			grid = grid[1:]
			skipped++
		}
	} else if body := len(grid) - 1; len(rowLabels) > body && body >= 0 {
		rowLabels = rowLabels[:body]
	}
	return grid, rowLabels, skipped
}

func isBlankRow(row []any, from int) bool {
	for _, c := range row[from:] {
		if !isBlank(c) {
			return false
		}
	}
	return true
}

func isBlankColumn(grid [][]any, col int) bool {
	for _, row := range grid {
		if !isBlank(row[col]) {
			return false
		}
	}
	return true
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return spaceReplacer.Replace(t) == ""
	}
	return false
}

// transpose swaps rows and columns. A separate index is folded in as the first column first.
func transpose(grid [][]any, rowLabels []any) [][]any {
	if len(rowLabels) == len(grid)-1 && rowLabels != nil {
		folded := make([][]any, len(grid))
		folded[0] = append([]any{nil}, grid[0]...)
		for i, row := range grid[1:] {
			folded[i+1] = append([]any{rowLabels[i]}, row...)
		}
		grid = folded
	}
	out := make([][]any, len(grid[0]))
	for c := range out {
		out[c] = make([]any, len(grid))
		for r := range grid {
			out[c][r] = grid[r][c]
		}
	}
	return out
}

package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

var (
	reFormula = regexp.MustCompile(`^\s*\d+(?:[.,]\d+)?(?:\s*[-+]\s*\d+(?:[.,]\d+)?)+\s*(?:mm)?\s*$`)
	reTerm    = regexp.MustCompile(`([-+]?)\s*(\d+(?:[.,]\d+)?)`)
)

// NormalizeAndSanitizeJSON reshapes a model answer into the extraction schema:
//   - a bare array or a single item object is wrapped into {"items": [...]}
//   - legacy and Czech keys are renamed (produkt, sirka, hloubka, misto, nenalezeno, zprava, ...)
//   - an item whose product is the "nenalezeno" sentinel turns into not_found + message
//   - dimension strings holding sums or differences ("3590-240") are evaluated, other numeric
//     strings are normalized, nulls and blanks are dropped
//   - unknown keys are removed
//
// The returned slice names every change for logging.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changes []string
	root := map[string]any{}
	switch t := doc.(type) {
	case []any:
		root[constants.FieldItems] = t
		changes = append(changes, "array->items")
	case map[string]any:
		for k, v := range t {
			name, known := constants.CanonicalField(k)
			if !known {
				changes = append(changes, k+"(unknown)")
				continue
			}
			if name != k {
				changes = append(changes, k+"->"+name)
			}
			root[name] = v
		}
		if _, hasItems := root[constants.FieldItems]; !hasItems {
			if _, isItem := root[constants.FieldProduct]; isItem {
				item := map[string]any{}
				for _, f := range []string{constants.FieldProduct, constants.FieldWidth, constants.FieldHeight, constants.FieldPlace} {
					if v, ok := root[f]; ok {
						item[f] = v
						delete(root, f)
					}
				}
				root[constants.FieldItems] = []any{item}
				changes = append(changes, "object->items")
			}
		}
	default:
		return nil, nil, fmt.Errorf("sanitize: unexpected top-level %T", doc)
	}

	// "nenalezeno" may arrive as a flag, a string, or the sentinel product
	switch v := root[constants.FieldNotFound].(type) {
	case nil, bool:
	case string:
		root[constants.FieldNotFound] = true
		if _, ok := root[constants.FieldMessage]; !ok && strings.TrimSpace(v) != "" {
			root[constants.FieldMessage] = v
		}
		changes = append(changes, "not_found(string)")
	default:
		root[constants.FieldNotFound] = true
		changes = append(changes, "not_found(type)")
	}

	rawItems, _ := root[constants.FieldItems].([]any)
	items := make([]any, 0, len(rawItems))
	for i, ri := range rawItems {
		m, ok := ri.(map[string]any)
		if !ok {
			changes = append(changes, fmt.Sprintf("items[%d](type)", i))
			continue
		}
		item, itemChanges := sanitizeItem(m, i)
		changes = append(changes, itemChanges...)

		if p, _ := item[constants.FieldProduct].(string); strings.EqualFold(p, constants.NotFoundSentinel) {
			root[constants.FieldNotFound] = true
			if msg, ok := m["zprava"].(string); ok {
				root[constants.FieldMessage] = msg
			} else if msg, ok := m[constants.FieldMessage].(string); ok {
				root[constants.FieldMessage] = msg
			}
			changes = append(changes, fmt.Sprintf("items[%d](sentinel)", i))
			continue
		}
		items = append(items, item)
	}
	if _, present := root[constants.FieldItems]; present || len(items) > 0 {
		root[constants.FieldItems] = items
	}
	if msg, ok := root[constants.FieldMessage]; ok {
		if s, isStr := msg.(string); !isStr || strings.TrimSpace(s) == "" {
			delete(root, constants.FieldMessage)
			changes = append(changes, "message(empty)")
		}
	}

	out, err := json.Marshal(root)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changes", changes)
	}
	return out, changes, nil
}

func sanitizeItem(m map[string]any, idx int) (map[string]any, []string) {
	var changes []string
	note := func(s string) { changes = append(changes, fmt.Sprintf("items[%d].%s", idx, s)) }

	item := map[string]any{}
	for k, v := range m {
		name, known := constants.CanonicalField(k)
		switch {
		case !known:
			note(k + "(unknown)")
			continue
		case name == constants.FieldMessage:
			// only meaningful next to the sentinel; kept on the raw map
			continue
		case name != k:
			note(k + "->" + name)
		}
		item[name] = v
	}

	for _, k := range []string{constants.FieldProduct, constants.FieldPlace} {
		switch v := item[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s == "" {
				delete(item, k)
				note(k + "(empty)")
			} else {
				item[k] = s
			}
		case nil:
			if _, present := item[k]; present {
				delete(item, k)
				note(k + "(null)")
			}
		default:
			item[k] = fmt.Sprint(v)
			note(k + "(type)")
		}
	}

	for _, k := range []string{constants.FieldWidth, constants.FieldHeight} {
		v, present := item[k]
		if !present {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(item, k)
			note(k + "(null)")
		case float64:
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(item, k)
				note(k + "(empty)")
				continue
			}
			if f, ok := evalDimension(s); ok {
				item[k] = f
				note(k + "(evaluated)")
			}
		default:
			delete(item, k)
			note(k + "(type)")
		}
	}
	return item, changes
}

// evalDimension turns "3590-240", "3 000 mm" or "2,5" into a number.
func evalDimension(s string) (float64, bool) {
	if compact := strings.ReplaceAll(s, " ", ""); reFormula.MatchString(compact) {
		sum := 0.0
		for _, m := range reTerm.FindAllStringSubmatch(strings.TrimSuffix(compact, "mm"), -1) {
			f, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
			if err != nil {
				return 0, false
			}
			if m[1] == "-" {
				sum -= f
			} else {
				sum += f
			}
		}
		return sum, true
	}
	if n, ok := matrix.Normalize(s); ok {
		return float64(n), true
	}
	return 0, false
}

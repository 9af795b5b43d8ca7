package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// lookup walks a dotted path through nested maps.
func lookup(fields map[string]any, path string) (any, bool) {
	var cur any = fields
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// first returns the first present value among paths.
func first(fields map[string]any, paths []string) (any, bool) {
	for _, path := range paths {
		if v, ok := lookup(fields, path); ok {
			return v, true
		}
	}
	return nil, false
}

func firstString(fields map[string]any, paths []string) string {
	for _, path := range paths {
		v, ok := lookup(fields, path)
		if !ok {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

func firstInt(fields map[string]any, paths []string) int {
	for _, path := range paths {
		v, ok := lookup(fields, path)
		if !ok {
			continue
		}
		if n, ok := asInt(v); ok {
			return n
		}
	}
	return 0
}

func firstFloat(fields map[string]any, paths []string) (float64, bool) {
	for _, path := range paths {
		v, ok := lookup(fields, path)
		if !ok {
			continue
		}
		if f, ok := asFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func firstBool(fields map[string]any, paths []string) bool {
	for _, path := range paths {
		v, ok := lookup(fields, path)
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
				return parsed
			}
		}
	}
	return false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

var leadingNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func asFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		match := leadingNumber.FindString(strings.ReplaceAll(n, ",", ""))
		if match == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// stringList flattens a list of strings or {name: ...} objects.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := asString(v); s != "" {
			return strings.Split(s, ",")
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case map[string]any:
			if name := firstString(it, []string{"name", "title", "label"}); name != "" {
				out = append(out, name)
			}
		default:
			if s := asString(it); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

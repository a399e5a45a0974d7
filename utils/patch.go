package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// UpdatesFromPtrDTO turns a patch DTO into a gorm Updates map: every non-nil pointer field
// becomes a column keyed by its json name (renames maps json -> column when they differ).
// Embedded structs are flattened so one header patch can be shared by several inputs.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	out := make(map[string]any)
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return out
	}
	collectPatch(v.Elem(), renames, out)
	return out
}

func collectPatch(s reflect.Value, renames map[string]string, out map[string]any) {
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		sf, fv := t.Field(i), s.Field(i)
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			collectPatch(fv, renames, out)
			continue
		}
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		col, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if col == "" || col == "-" {
			continue
		}
		if alt := renames[col]; alt != "" {
			col = alt
		}
		out[col] = fv.Elem().Interface()
	}
}

// ParseIntDefault parses a non-negative query value, returning def for anything else.
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}

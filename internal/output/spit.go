// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/staranto/dotcache/internal/pathutil"
)

// Formats are the accepted --output values.
var Formats = []string{"text", "json", "yaml", "raw"}

// ErrNoMatch is returned when a --select query matches nothing.
var ErrNoMatch = errors.New("select matched nothing")

// Options carries the rendering flags shared by every command.
type Options struct {
	Format string
	Select string
	Color  bool
	Titles bool
}

// Emit writes v to w in the requested format. A non-empty Select is applied
// first as a gjson query over v's JSON form.
func Emit(w io.Writer, v any, opts Options) error {
	if w == nil {
		w = os.Stdout
	}

	if opts.Select != "" {
		selected, err := Select(v, opts.Select)
		if err != nil {
			return err
		}
		v = selected
	}

	switch opts.Format {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "raw":
		if s, ok := v.(string); ok {
			_, err := fmt.Fprintln(w, s)
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return emitText(w, v, opts)
	}
}

// Select runs a gjson query against v.
func Select(v any, query string) (any, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %w", err)
	}

	res := gjson.GetBytes(doc, query)
	if !res.Exists() {
		log.Debugf("select %q matched nothing", query)
		return nil, ErrNoMatch
	}

	out, err := pathutil.Normalize(res.Value())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// emitText prints scalars bare, sequences one element per line and mappings
// as a two column path/value table.
func emitText(w io.Writer, v any, opts Options) error {
	switch t := v.(type) {
	case map[string]any:
		rows := Flatten(t)
		if len(rows) == 0 {
			return nil
		}
		var headers []string
		if opts.Titles {
			headers = []string{"PATH", "VALUE"}
		}
		TableWriter(w, headers, rows, opts.Color)
		return nil
	case []any:
		for _, e := range t {
			if _, err := fmt.Fprintln(w, InterfaceToString(e, "null")); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(w, InterfaceToString(v, "null"))
		return err
	}
}

// Flatten lists every leaf of m as an escaped dot path and its text form,
// sorted by path. Empty mappings and sequences are leaves.
func Flatten(m map[string]any) [][]string {
	var rows [][]string
	flatten(nil, m, &rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}

func flatten(prefix []string, v any, rows *[][]string) {
	if m, ok := v.(map[string]any); ok && len(m) > 0 {
		for k, child := range m {
			next := make([]string, len(prefix), len(prefix)+1)
			copy(next, prefix)
			flatten(append(next, k), child, rows)
		}
		return
	}
	*rows = append(*rows, []string{pathutil.Join(prefix...), InterfaceToString(v, "null")})
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided for nil.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		if rv := reflect.ValueOf(value); (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
			return emptyValue[0]
		}
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// DiffWriter prints the differences between two cache snapshots and reports
// whether there were any. Format "json" prints the delta document; anything
// else prints the annotated ascii form.
func DiffWriter(w io.Writer, left, right map[string]any, format string, color bool) (bool, error) {
	if left == nil {
		left = map[string]any{}
	}
	if right == nil {
		right = map[string]any{}
	}

	d := gojsondiff.New().CompareObjects(left, right)
	if !d.Modified() {
		return false, nil
	}

	var (
		out string
		err error
	)
	if format == "json" {
		out, err = formatter.NewDeltaFormatter().Format(d)
	} else {
		f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
			Coloring:       color,
		})
		out, err = f.Format(d)
	}
	if err != nil {
		return true, fmt.Errorf("failed to format diff: %w", err)
	}

	_, err = fmt.Fprint(w, out)
	return true, err
}

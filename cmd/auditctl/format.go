package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

func checkFormat(f string) error {
	switch f {
	case "json", "table", "quiet":
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json, table or quiet)", f)
	}
}

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			width := 0
			if i < len(widths) {
				width = widths[i]
			}

			parts[i] = fmt.Sprintf("%-*s", width, cell)
		}

		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)

	seps := make([]string, len(headers))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}

	printRow(seps)

	for _, row := range rows {
		printRow(row)
	}
}

// output prints one value. Quiet prints only quietVal; table has no generic
// rendering for single values and falls back to JSON.
func output(w io.Writer, v any, quietVal string) error {
	if flagFmt == "quiet" {
		_, err := fmt.Fprintln(w, quietVal)
		return err
	}

	return formatJSON(w, v)
}

// outputRows prints a list. ids are printed one per line in quiet mode.
func outputRows(w io.Writer, v any, headers []string, rows [][]string, ids []string) error {
	switch flagFmt {
	case "table":
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "(none)")
			return err
		}

		formatTable(w, headers, rows)

		return nil
	case "quiet":
		for _, id := range ids {
			if _, err := fmt.Fprintln(w, id); err != nil {
				return err
			}
		}

		return nil
	default:
		return formatJSON(w, v)
	}
}

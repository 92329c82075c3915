package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"user-control/internal/domain"
)

const minCellWidth = 8

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable writes rows under headers as aligned columns. When w is a
// terminal, cells are cut to fit its width.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	maxCell := 0
	if width := terminalWidth(w); width > 0 && len(headers) > 0 {
		maxCell = max(width/len(headers)-2, minCellWidth)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = truncate(c, maxCell)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// formatValue renders a column value for table output. NULL renders empty;
// composite values render as JSON.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// recordColumns returns the union of column names across records with email
// first and the rest sorted.
func recordColumns(records []domain.ControlRecord) []string {
	seen := map[string]bool{domain.ColumnEmail: true}
	cols := []string{domain.ColumnEmail}
	var rest []string
	for _, r := range records {
		for _, c := range r.ColumnNames() {
			if !seen[c] {
				seen[c] = true
				rest = append(rest, c)
			}
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// printRecords writes records in the command's output format. When keys is
// non-nil it is printed as a leading KEY column.
func printRecords(cmd *cobra.Command, keys []string, records []domain.ControlRecord) error {
	out := cmd.OutOrStdout()
	if getOutputFormat(cmd) == "json" {
		return PrintJSON(out, recordsJSON(keys, records))
	}

	cols := recordColumns(records)
	headers := make([]string, 0, len(cols)+1)
	if keys != nil {
		headers = append(headers, "KEY")
	}
	for _, c := range cols {
		headers = append(headers, strings.ToUpper(c))
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		row := make([]string, 0, len(headers))
		if keys != nil {
			row = append(row, keys[i])
		}
		for _, c := range cols {
			if c == domain.ColumnEmail {
				row = append(row, r.Email)
				continue
			}
			v, _ := r.Get(c)
			row = append(row, formatValue(v))
		}
		rows = append(rows, row)
	}
	return PrintTable(out, headers, rows)
}

type recordJSON struct {
	Key      string                 `json:"key,omitempty"`
	Email    string                 `json:"email"`
	Fallback bool                   `json:"fallback"`
	Columns  map[string]interface{} `json:"columns"`
}

func recordsJSON(keys []string, records []domain.ControlRecord) []recordJSON {
	out := make([]recordJSON, len(records))
	for i, r := range records {
		out[i] = recordJSON{Email: r.Email, Fallback: r.IsFallback(), Columns: jsonColumns(r.Columns)}
		if keys != nil {
			out[i].Key = keys[i]
		}
	}
	return out
}

func jsonColumns(cols map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(cols))
	for k, v := range cols {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[k] = v
	}
	return out
}

package tablewriter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Column defines one table column.
type Column struct {
	Name         string
	SeparateLine bool // render the value on its own line under the row
	RightAlign   bool
}

type columnCfg struct {
	rightAlign bool
}

// ColumnOption configures a column.
type ColumnOption func(*columnCfg)

// RightAlign right-aligns the column content.
func RightAlign() ColumnOption {
	return func(c *columnCfg) {
		c.rightAlign = true
	}
}

// TableWriter accumulates rows and renders them aligned.
type TableWriter struct {
	cols []Column
	rows []map[string]string
}

// Col creates an inline column.
func Col(name string, opts ...ColumnOption) Column {
	cfg := &columnCfg{}
	for _, o := range opts {
		o(cfg)
	}
	return Column{Name: name, RightAlign: cfg.rightAlign}
}

// NewLineCol creates a column rendered on a separate line below its row,
// for long values like addresses and cbor blobs.
func NewLineCol(name string) Column {
	return Column{Name: name, SeparateLine: true}
}

// New creates a TableWriter with the given columns.
func New(cols ...Column) *TableWriter {
	return &TableWriter{cols: cols}
}

// Write appends one row. Values for unknown columns are ignored.
func (w *TableWriter) Write(row map[string]interface{}) {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = fmt.Sprint(v)
	}
	w.rows = append(w.rows, out)
}

// Flush renders the accumulated rows to dst.
func (w *TableWriter) Flush(dst io.Writer) error {
	tw := tabwriter.NewWriter(dst, 2, 4, 2, ' ', 0)

	header := make([]string, 0, len(w.cols))
	for _, c := range w.cols {
		if c.SeparateLine {
			continue
		}
		header = append(header, c.Name)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, row := range w.rows {
		cells := make([]string, 0, len(w.cols))
		var extra []string
		for _, c := range w.cols {
			val := row[c.Name]
			if c.SeparateLine {
				if val != "" {
					extra = append(extra, fmt.Sprintf("  %s: %s", c.Name, val))
				}
				continue
			}
			cells = append(cells, val)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
		for _, line := range extra {
			if _, err := fmt.Fprintln(tw, line); err != nil {
				return err
			}
		}
	}

	return tw.Flush()
}

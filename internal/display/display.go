// Package display provides character displays for Runners: a tcell-backed
// emulation of a two-row LCD and a plain line writer.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Display is the narrow surface a Runner renders through.
type Display interface {
	ShowText(text string, row, col int) error
	Reset() error
}

// Framer is implemented by displays that can replace all rows and redraw
// once.
type Framer interface {
	ShowFrame(rows ...string) error
}

// ShowRows replaces rows from the top, padding each to the full width so
// shorter text never leaves stale characters behind.
func ShowRows(d Display, rows ...string) error {
	if f, ok := d.(Framer); ok {
		return f.ShowFrame(rows...)
	}
	for i, row := range rows {
		if err := d.ShowText(fmt.Sprintf("%-*s", Cols, row), i, 0); err != nil {
			return err
		}
	}
	return nil
}

// Rows and Cols match a 16x2 character LCD.
const (
	Rows = 2
	Cols = 16
)

// Buffer is an in-memory character grid shared by the display
// implementations.
type Buffer struct {
	mu    sync.Mutex
	cells [Rows][Cols]rune
}

// NewBuffer creates a blank buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.clear()
	return b
}

// Write places text at (row, col), clipping at the right edge.
func (b *Buffer) Write(text string, row, col int) error {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return fmt.Errorf("position (%d, %d) outside %dx%d display", row, col, Rows, Cols)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range text {
		if col >= Cols {
			break
		}
		b.cells[row][col] = r
		col++
	}
	return nil
}

// SetRows blanks and rewrites rows from the top in one step.
func (b *Buffer) SetRows(rows ...string) error {
	if len(rows) > Rows {
		return fmt.Errorf("%d rows for a %d row display", len(rows), Rows)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, text := range rows {
		col := 0
		for _, r := range text {
			if col >= Cols {
				break
			}
			b.cells[i][col] = r
			col++
		}
		for ; col < Cols; col++ {
			b.cells[i][col] = ' '
		}
	}
	return nil
}

// Row returns one row with trailing blanks trimmed.
func (b *Buffer) Row(row int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimRight(string(b.cells[row][:]), " ")
}

// Clear blanks every cell.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clear()
}

func (b *Buffer) clear() {
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c] = ' '
		}
	}
}

// Line writes the buffer to w as text whenever its content changes.
type Line struct {
	buf  *Buffer
	w    io.Writer
	last string
}

// NewLine creates a line display writing to w.
func NewLine(w io.Writer) *Line {
	return &Line{buf: NewBuffer(), w: w}
}

func (l *Line) ShowText(text string, row, col int) error {
	if err := l.buf.Write(text, row, col); err != nil {
		return err
	}
	return l.flush()
}

// ShowFrame replaces the given rows and writes a single line.
func (l *Line) ShowFrame(rows ...string) error {
	if err := l.buf.SetRows(rows...); err != nil {
		return err
	}
	return l.flush()
}

func (l *Line) Reset() error {
	l.buf.Clear()
	return l.flush()
}

// Buffer exposes the underlying grid.
func (l *Line) Buffer() *Buffer {
	return l.buf
}

func (l *Line) flush() error {
	out := l.buf.Row(0) + " | " + l.buf.Row(1)
	if out == l.last {
		return nil
	}
	l.last = out
	_, err := fmt.Fprintln(l.w, out)
	return err
}

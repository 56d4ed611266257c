package display

import (
	"github.com/gdamore/tcell/v2"
)

// Terminal emulates the LCD on a tcell screen: a framed 16x2 panel with a
// status line underneath.
type Terminal struct {
	screen tcell.Screen
	buf    *Buffer
	status string
	style  tcell.Style
	frame  tcell.Style
}

// NewTerminal initializes a tcell screen. Call Close to restore the terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return NewTerminalOn(screen), nil
}

// NewTerminalOn wraps an already initialized screen.
func NewTerminalOn(screen tcell.Screen) *Terminal {
	t := &Terminal{
		screen: screen,
		buf:    NewBuffer(),
		style:  tcell.StyleDefault.Foreground(tcell.ColorGreen),
		frame:  tcell.StyleDefault.Foreground(tcell.ColorGray),
	}
	screen.Clear()
	t.draw()
	return t
}

// Screen returns the tcell screen, for polling key events.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

func (t *Terminal) ShowText(text string, row, col int) error {
	if err := t.buf.Write(text, row, col); err != nil {
		return err
	}
	t.draw()
	return nil
}

func (t *Terminal) ShowFrame(rows ...string) error {
	if err := t.buf.SetRows(rows...); err != nil {
		return err
	}
	t.draw()
	return nil
}

func (t *Terminal) Reset() error {
	t.buf.Clear()
	t.draw()
	return nil
}

// SetStatus replaces the line shown under the panel.
func (t *Terminal) SetStatus(s string) {
	t.status = s
	t.draw()
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.screen.Fini()
}

func (t *Terminal) draw() {
	const x0, y0 = 1, 1
	t.put(x0-1, y0-1, "+"+repeat('-', Cols)+"+", t.frame)
	for r := 0; r < Rows; r++ {
		t.put(x0-1, y0+r, "|", t.frame)
		row := t.buf.Row(r)
		t.put(x0, y0+r, row+repeat(' ', Cols-len([]rune(row))), t.style)
		t.put(x0+Cols, y0+r, "|", t.frame)
	}
	t.put(x0-1, y0+Rows, "+"+repeat('-', Cols)+"+", t.frame)

	_, h := t.screen.Size()
	if y := y0 + Rows + 2; y < h {
		t.put(0, y, t.status+"    ", tcell.StyleDefault)
	}
	t.screen.Show()
}

func (t *Terminal) put(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func repeat(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

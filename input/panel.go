package input

import "time"

// LevelReader returns the raw level of a named input line.
type LevelReader func(name string) bool

// Panel polls a fixed set of buttons in registration order, so presses
// that land in the same poll cycle are reported in that order.
type Panel struct {
	read    LevelReader
	buttons []*Button
	opts    []ButtonOption
	handler Handler
}

// NewPanel creates a panel reading levels through read.
func NewPanel(read LevelReader, handler Handler, opts ...ButtonOption) *Panel {
	return &Panel{read: read, handler: handler, opts: opts}
}

// Add registers a button and returns it.
func (p *Panel) Add(name string) *Button {
	b := NewButton(name, p.handler, p.opts...)
	p.buttons = append(p.buttons, b)
	return b
}

// Button returns a registered button by name.
func (p *Panel) Button(name string) (*Button, bool) {
	for _, b := range p.buttons {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

// Poll samples every button once and returns the number of edges reported.
func (p *Panel) Poll() (int, error) {
	edges := 0
	for _, b := range p.buttons {
		if b.Sample(p.read(b.name)) {
			edges++
		}
	}
	return edges, nil
}

// Watch polls every interval until stop is closed, for boards where the
// panel runs on its own goroutine and the handler only posts events.
func (p *Panel) Watch(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

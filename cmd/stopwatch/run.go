package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/armon/go-metrics"
	"github.com/gdamore/tcell/v2"
	"github.com/gookit/gcli/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/comalice/pollfsm"
	"github.com/comalice/pollfsm/input"
	"github.com/comalice/pollfsm/internal/buzzer"
	"github.com/comalice/pollfsm/internal/config"
	"github.com/comalice/pollfsm/internal/display"
	"github.com/comalice/pollfsm/internal/production"
	"github.com/comalice/pollfsm/internal/stopwatch"
	"github.com/comalice/pollfsm/realtime"
)

const defaultConfigFile = "stopwatch.yaml"

func runCommand() *gcli.Command {
	var opts struct {
		config string
		table  string
		plain  bool
	}
	return &gcli.Command{
		Name: "run",
		Desc: "run the stopwatch (keys: start, stop, q to quit)",
		Config: func(c *gcli.Command) {
			c.StrOpt(&opts.config, "config", "c", "", "application config YAML (default: ./"+defaultConfigFile+")")
			c.StrOpt(&opts.table, "table", "t", "", "transition table YAML (overrides the config)")
			c.BoolOpt(&opts.plain, "plain", "p", false, "line display on stdout even on a terminal")
		},
		Func: func(c *gcli.Command, args []string) error {
			cfg, err := config.New(opts.config, defaultConfigFile)
			if err != nil {
				return err
			}
			if opts.table != "" {
				cfg.Table = opts.table
			}
			tty := !opts.plain && term.IsTerminal(int(os.Stdout.Fd()))
			return run(cfg, tty)
		},
	}
}

// session holds what a run owns so shutdown can release it in order.
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	sink      *metrics.InmemSink
	runner    *stopwatch.Runner
	terminal  *display.Terminal
	persister production.Persister
	buttons   map[rune]*input.Button
}

func run(cfg *config.Config, tty bool) error {
	logger, err := cfg.Logger(tty)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	s := &session{cfg: cfg, logger: logger}
	if err := s.setup(tty); err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt := realtime.NewRuntime(s.runner.Machine(), realtime.Config{
		TickRate: cfg.TickInterval,
		DoAction: s.runner.DoAction,
		Logger:   logger,
	})
	rt.AddPoller(realtime.Flagging(s.runner.Total()))
	rt.AddPoller(realtime.Flagging(s.runner.Split()))

	if s.terminal != nil {
		go s.readKeys(cancel)
	} else {
		go s.readLines(cancel)
	}

	err = rt.Run(ctx)
	s.save()
	s.report()
	if errors.Is(err, context.Canceled) || errors.Is(err, realtime.ErrStopped) {
		return nil
	}
	return err
}

func (s *session) setup(tty bool) error {
	table, err := loadTable(s.cfg.Table)
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}

	mc := metrics.DefaultConfig("stopwatch")
	mc.EnableHostname = false
	mc.EnableRuntimeMetrics = false
	s.sink = metrics.NewInmemSink(10*time.Second, time.Minute)
	m, err := metrics.New(mc, s.sink)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var disp display.Display
	if tty {
		if s.terminal, err = display.NewTerminal(); err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		disp = s.terminal
	} else {
		disp = display.NewLine(os.Stdout)
	}

	machineOpts := append(s.cfg.MachineOptions(),
		pollfsm.WithMetrics(m),
		pollfsm.WithObserver(s.observe))
	s.runner, err = stopwatch.New(
		stopwatch.WithTable(table),
		stopwatch.WithDisplay(disp),
		stopwatch.WithLogger(s.logger),
		stopwatch.WithMachineOptions(machineOpts...))
	if err != nil {
		s.close()
		return err
	}

	s.runner.Events().Chain(buzzer.New(s.cfg.Sound, s.logger))
	s.buttons = map[rune]*input.Button{}
	for key, name := range map[string]string{s.cfg.Keys.Start: stopwatch.StartButton, s.cfg.Keys.Stop: stopwatch.StopButton} {
		r := []rune(key)[0]
		s.buttons[r] = input.NewButton(name, s.runner.Events(), input.WithDebounce(s.cfg.Debounce))
	}

	if s.cfg.Snapshot.Dir != "" {
		p, err := production.NewPersister(s.cfg.Snapshot.Format, s.cfg.Snapshot.Dir)
		if err != nil {
			s.close()
			return err
		}
		s.persister = p
		s.restore()
	}
	s.status()
	return nil
}

func (s *session) restore() {
	snap, err := s.persister.Load(context.Background(), s.runner.Config().ID)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err == nil {
		err = s.runner.Restore(snap)
	}
	if err != nil {
		s.logger.Warn("snapshot not restored", zap.Error(err))
		return
	}
	s.logger.Info("snapshot restored", zap.String("state", snap.StateName))
}

func (s *session) save() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(context.Background(), s.runner.Snapshot()); err != nil {
		s.logger.Error("snapshot not saved", zap.Error(err))
	}
}

// report logs the engine counters collected during the run.
func (s *session) report() {
	for _, interval := range s.sink.Data() {
		for name, c := range interval.Counters {
			s.logger.Info("metric", zap.String("name", name), zap.Int("count", c.Count))
		}
	}
}

func (s *session) close() {
	if s.terminal != nil {
		s.terminal.Close()
		s.terminal = nil
	}
}

func (s *session) observe(t pollfsm.Transition) {
	s.status()
}

func (s *session) status() {
	if s.terminal == nil || s.runner == nil {
		return
	}
	m := s.runner.Machine()
	s.terminal.SetStatus(fmt.Sprintf("%-8s  [%s] start  [%s] stop  [q] quit",
		m.StateName(m.CurrentState()), s.cfg.Keys.Start, s.cfg.Keys.Stop))
}

func (s *session) press(r rune) bool {
	b, ok := s.buttons[r]
	if !ok {
		return false
	}
	b.Tap()
	return true
}

// readKeys turns terminal key presses into button taps until q or Esc.
func (s *session) readKeys(quit context.CancelFunc) {
	screen := s.terminal.Screen()
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				quit()
				return
			}
			if ev.Key() == tcell.KeyRune {
				s.press(ev.Rune())
			}
		}
	}
}

// readLines accepts one command per line: a key, a button name, or q.
func (s *session) readLines(quit context.CancelFunc) {
	defer quit()
	names := map[string]rune{}
	for r, b := range s.buttons {
		names[b.Name()] = r
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			return
		}
		r, ok := names[line]
		if rs := []rune(line); !ok && len(rs) == 1 {
			r, ok = rs[0], true
		}
		if !ok || !s.press(r) {
			if line != "" {
				s.logger.Warn("unknown input", zap.String("line", line))
			}
			continue
		}
		// piped input arrives faster than the debounce window
		time.Sleep(s.cfg.Debounce)
	}
	s.drain()
}

// drain waits until queued presses have been applied and shown.
func (s *session) drain() {
	m := s.runner.Machine()
	for m.IsRunning() && m.Pending() > 0 {
		time.Sleep(s.cfg.TickInterval)
	}
	time.Sleep(2 * s.cfg.TickInterval)
}

package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/gookit/gcli/v3"
	"go.uber.org/multierr"

	"github.com/comalice/pollfsm/internal/primitives"
	"github.com/comalice/pollfsm/internal/production"
	"github.com/comalice/pollfsm/internal/stopwatch"
)

// loadTable returns the table at path, or the built-in one when path is empty.
func loadTable(path string) (*primitives.MachineConfig, error) {
	if path == "" {
		return stopwatch.DefaultTable()
	}
	return primitives.Load(path)
}

func dotCommand() *gcli.Command {
	var opts struct {
		table    string
		snapshot string
		json     bool
	}
	return &gcli.Command{
		Name: "dot",
		Desc: "print the transition table as Graphviz DOT",
		Config: func(c *gcli.Command) {
			c.StrOpt(&opts.table, "table", "t", "", "transition table YAML (default: built-in stopwatch)")
			c.StrOpt(&opts.snapshot, "snapshot", "s", "", "JSON snapshot whose state is highlighted")
			c.BoolOpt(&opts.json, "json", "j", false, "print the table as JSON instead")
		},
		Func: func(c *gcli.Command, args []string) error {
			cfg, err := loadTable(opts.table)
			if err != nil {
				return err
			}
			viz := &production.DefaultVisualizer{}
			if opts.json {
				out, err := viz.ExportJSON(*cfg)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			current := ""
			if opts.snapshot != "" {
				summary, err := readSummary(opts.snapshot)
				if err != nil {
					return err
				}
				current = summary.StateName
			}
			fmt.Print(viz.ExportDOT(*cfg, current))
			return nil
		},
	}
}

func validateCommand() *gcli.Command {
	return &gcli.Command{
		Name: "validate",
		Desc: "validate transition table definitions: validate FILE...",
		Func: func(c *gcli.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no table files given")
			}
			var errs error
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					color.Error.Printf("FAIL %s: %v\n", path, err)
					errs = multierr.Append(errs, err)
					continue
				}
				cfg, err := primitives.Parse(data)
				if err != nil {
					color.Error.Printf("FAIL %s\n", path)
					for _, e := range multierr.Errors(err) {
						color.Error.Printf("  %v\n", e)
					}
					errs = multierr.Append(errs, fmt.Errorf("%s is invalid", path))
					continue
				}
				color.Info.Printf("ok   %s  id=%s version=%s states=%d transitions=%d\n",
					path, cfg.ID, primitives.ComputeVersion(cfg), len(cfg.States), len(cfg.Transitions))
			}
			return errs
		},
	}
}

func inspectCommand() *gcli.Command {
	return &gcli.Command{
		Name: "inspect",
		Desc: "show the state and timers of a JSON snapshot: inspect FILE",
		Func: func(c *gcli.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one snapshot file, got %d", len(args))
			}
			s, err := readSummary(args[0])
			if err != nil {
				return err
			}
			color.Cyan.Printf("%s", s.MachineID)
			fmt.Printf("  state=%d (%s) running=%t taken=%s\n",
				s.State, s.StateName, s.Running, s.Taken.Format("2006-01-02 15:04:05"))
			for _, name := range s.TimerNames() {
				fmt.Printf("  %-4s %.1fs\n", name, s.Timers[name].Seconds())
			}
			return nil
		},
	}
}

func readSummary(path string) (production.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return production.Summary{}, err
	}
	s, err := production.Inspect(data)
	if err != nil {
		return production.Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nimburion/invigilate/pkg/config"
	"github.com/nimburion/invigilate/pkg/invigilate"
	"github.com/nimburion/invigilate/pkg/loggers"
	"github.com/nimburion/invigilate/pkg/observability/metrics"
)

// Logger actions accepted in a unit graph.
const (
	actionStdout = "stdout"
	actionSilent = "silent"
	actionReset  = "reset"
	actionDetach = "detach"
)

// UnitGraph is the YAML document read by the tree command.
//
//	units:
//	  - id: app
//	    logger: stdout
//	  - id: app/db
//	    parent: app
//	    virtual: true
//	  - id: app/db/pool
//	    parent: app/db
//	    message: connected
type UnitGraph struct {
	Units []UnitSpec `yaml:"units"`
}

// UnitSpec declares one unit. Units are registered in file order; a virtual
// unit only takes part in the parent chain and is never registered. Logger
// is applied right after registration, Message is logged through the
// unit's proxy once every unit is in place.
type UnitSpec struct {
	ID      string `yaml:"id"`
	Parent  string `yaml:"parent"`
	Virtual bool   `yaml:"virtual"`
	Logger  string `yaml:"logger"`
	Message string `yaml:"message"`
}

type configLoader func(flags *pflag.FlagSet) (*config.Config, *config.ViperLoader, error)

func newTreeCommand(loadConfig configLoader) *cobra.Command {
	var (
		file        string
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Register a unit graph and print the resolved context tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			graph, err := readUnitGraph(file)
			if err != nil {
				return err
			}

			reg := metrics.NewRegistry()
			obs, err := metrics.NewObserver(reg)
			if err != nil {
				return err
			}
			rt, err := config.Build(cfg, cmd.ErrOrStderr(), invigilate.WithObserver(obs))
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if err := applyUnitGraph(rt.Units, graph, out); err != nil {
				return err
			}
			printTree(out, rt.Units)

			if showMetrics {
				samples, err := reg.Samples("invigilate_")
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				for _, s := range samples {
					fmt.Fprintln(out, s)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "unit graph file (YAML), - for stdin")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print registry metrics after the tree")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readUnitGraph(path string) (*UnitGraph, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open unit graph: %w", err)
		}
		defer f.Close()
		r = f
	}
	return decodeUnitGraph(r)
}

func decodeUnitGraph(r io.Reader) (*UnitGraph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var graph UnitGraph
	if err := dec.Decode(&graph); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode unit graph: %w", err)
	}

	seen := make(map[string]struct{}, len(graph.Units))
	for i, u := range graph.Units {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("units[%d]: %w: empty id", i, invigilate.ErrInvalidUnit)
		}
		if _, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("units[%d]: duplicate id %q", i, u.ID)
		}
		seen[u.ID] = struct{}{}
		switch u.Logger {
		case "", actionStdout, actionSilent, actionReset, actionDetach:
		default:
			return nil, fmt.Errorf("units[%d]: unknown logger %q", i, u.Logger)
		}
		if u.Virtual && (u.Logger != "" || u.Message != "") {
			return nil, fmt.Errorf("units[%d]: virtual unit %q cannot have a logger or message", i, u.ID)
		}
	}
	return &graph, nil
}

func applyUnitGraph(r *invigilate.Registry, graph *UnitGraph, out io.Writer) error {
	parents := make(invigilate.ParentMap, len(graph.Units))
	for _, u := range graph.Units {
		if u.Parent != "" {
			parents[invigilate.ID(u.ID)] = invigilate.ID(u.Parent)
		}
	}

	stdout := stdoutLogger(r.Loggers().Methods(), out)
	silent := r.Loggers().Silent()

	type pending struct {
		ctx     *invigilate.Context
		message string
	}
	var messages []pending
	for _, u := range graph.Units {
		if u.Virtual {
			continue
		}
		c, err := r.Register(invigilate.ID(u.ID), parents.Parent)
		if err != nil {
			return err
		}
		switch u.Logger {
		case actionStdout:
			c.SetLogger(stdout)
		case actionSilent:
			c.SetLogger(silent)
		case actionReset:
			c.Reset()
		case actionDetach:
			c.Detach()
		}
		if u.Message != "" {
			messages = append(messages, pending{ctx: c, message: u.Message})
		}
	}

	for _, p := range messages {
		if err := p.ctx.Proxy().Info(p.message); err != nil {
			return err
		}
	}
	return nil
}

// stdoutLogger prints every method as "method: args".
func stdoutLogger(methods []loggers.Method, out io.Writer) *loggers.Logger {
	b := loggers.NewBuilder(actionStdout)
	for _, m := range methods {
		b.With(m, func(args ...any) error {
			_, err := fmt.Fprintln(out, append([]any{string(m) + ":"}, args...)...)
			return err
		})
	}
	return b.Build()
}

// printTree prints every root unit followed by its subtree, indented two
// spaces per level.
func printTree(out io.Writer, units *invigilate.Registry) {
	for _, id := range units.Keys() {
		c, ok := units.Get(id)
		if !ok {
			continue
		}
		if _, linked := c.Parent(); linked {
			continue
		}
		units.Walk(id, func(n invigilate.Node, depth int) {
			fmt.Fprintf(out, "%s%s [%s]\n", strings.Repeat("  ", depth), n.ID, n.Logger)
		})
	}
}

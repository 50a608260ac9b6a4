package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/borzacchiello/gortl"
)

func main() {
	simplifyCmd := &cli.Command{
		Name:        "simplify",
		Description: "simplify expressions to a fixed point",
		Action:      simplifyAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("stats", false, "print expression arena stats to stderr"),
			cli.HelpFlag,
		},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "simplify expressions proving every rewrite",
		Action:      checkAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("stats", false, "print expression arena stats to stderr"),
			cli.HelpFlag,
		},
	}

	evalCmd := &cli.Command{
		Name:        "eval",
		Description: "evaluate an expression: eval EXPR name=value...",
		Action:      evalAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("base", 16, "output base"),
			cli.HelpFlag,
		},
	}

	app := &cli.Command{
		Name:        "gortl",
		Description: "gortl simplifies fixed width bit-vector expressions",
		Commands: []*cli.Command{
			simplifyCmd,
			checkCmd,
			evalCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func simplifyAct(c *cli.Command) (err error) {
	ctx := tlog.ContextWithSpan(context.Background(), tlog.Root())

	return simplify(ctx, os.Stdout, statsWriter(c), c.Args, gortl.DriverOptions{})
}

func checkAct(c *cli.Command) (err error) {
	p, err := newProver()
	if err != nil {
		return err
	}

	ctx := tlog.ContextWithSpan(context.Background(), tlog.Root())

	return simplify(ctx, os.Stdout, statsWriter(c), c.Args, gortl.DriverOptions{Prover: p})
}

func evalAct(c *cli.Command) (err error) {
	return eval(os.Stdout, c.Args, c.Int("base"))
}

func statsWriter(c *cli.Command) io.Writer {
	if c.Bool("stats") {
		return os.Stderr
	}
	return nil
}

// newProver prefers Z3 and falls back to exhaustive evaluation.
func newProver() (gortl.Prover, error) {
	p, err := gortl.NewZ3Prover()
	if errors.Is(err, gortl.ErrNoZ3) {
		return &gortl.ExhaustiveProver{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "z3")
	}
	return p, nil
}

func simplify(ctx context.Context, w, stats io.Writer, args []string, opts gortl.DriverOptions) (err error) {
	eb := gortl.NewExprBuilder()

	exprs := make([]*gortl.BVExprPtr, len(args))
	for i, a := range args {
		exprs[i], err = eb.Parse(a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}
	}

	res, err := eb.SimplifyAll(ctx, opts, exprs, runtime.GOMAXPROCS(0))
	if err != nil {
		return errors.Wrap(err, "simplify")
	}

	for _, r := range res {
		fmt.Fprintf(w, "%v\n", r)
	}

	if stats != nil {
		eb.PrintStats(stats)
	}

	return nil
}

func eval(w io.Writer, args []string, base int) (err error) {
	if len(args) == 0 {
		return errors.New("expression expected")
	}
	if base < 2 || base > 62 {
		return errors.New("bad base %d", base)
	}

	eb := gortl.NewExprBuilder()

	e, err := eb.Parse(args[0])
	if err != nil {
		return errors.Wrap(err, "parse %v", args[0])
	}

	widths := make(map[string]uint)
	for _, in := range eb.InvolvedInputs(e) {
		name, _ := in.WireName()
		widths[name] = in.Size()
	}

	interpr := make(map[string]*gortl.BVConst)
	for _, a := range args[1:] {
		name, val, ok := strings.Cut(a, "=")
		if !ok {
			return errors.New("%q: want name=value", a)
		}

		width, ok := widths[name]
		if !ok {
			return errors.New("%v: no such wire", name)
		}

		v := gortl.ParseConst(val, width)
		if v == nil {
			return errors.New("%v: bad %d bit value %q", name, width, val)
		}
		interpr[name] = v
	}

	v, err := gortl.Evaluate(e, interpr)
	if err != nil {
		return errors.Wrap(err, "eval")
	}

	fmt.Fprintf(w, "%s\n", v.Text(base))

	return nil
}

package gortl

import (
	"context"

	"github.com/benbjohnson/immutable"
	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

const DefaultMaxSweeps = 100

var (
	ErrNoConvergence  = errors.New("no fixed point reached")
	ErrUnsoundRewrite = errors.New("rewrite changed the value")
)

type DriverOptions struct {
	// MaxSweeps bounds the number of sweeps. Zero means DefaultMaxSweeps.
	MaxSweeps int

	// Prover, if set, checks every fold and rewrite.
	Prover Prover
}

// Simplify rewrites roots until no fold or rewrite applies anywhere in
// the DAG they reach. The result has one entry per root.
func (eb *ExprBuilder) Simplify(ctx context.Context, roots ...*BVExprPtr) ([]*BVExprPtr, error) {
	return eb.SimplifyWithOptions(ctx, DriverOptions{}, roots...)
}

func (eb *ExprBuilder) SimplifyWithOptions(ctx context.Context, opts DriverOptions, roots ...*BVExprPtr) (res []*BVExprPtr, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "simplify", "roots", len(roots))
	defer tr.Finish("err", &err)

	maxSweeps := opts.MaxSweeps
	if maxSweeps <= 0 {
		maxSweeps = DefaultMaxSweeps
	}

	cur := make([]*BVExprPtr, len(roots))
	copy(cur, roots)

	for i := 0; i < maxSweeps; i++ {
		if err = ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "sweep %d", i)
		}

		s := &sweep{
			eb:     eb,
			tr:     tr,
			prover: opts.Prover,
			uses:   CountUses(cur...),
			repl:   immutable.NewSortedMap(&uintptrComparer{}),
		}

		next := make([]*BVExprPtr, len(cur))
		for j, r := range cur {
			next[j], err = s.visit(r)
			if err != nil {
				return nil, errors.Wrap(err, "sweep %d", i)
			}
		}

		tr.Printw("sweep", "sweep", i, "changes", s.changes, "nodes", s.repl.Len())

		if s.changes == 0 {
			stats := eb.GetStats()
			tr.Printw("fixed point", "sweeps", i+1, "cached", stats.CachedBVs, "hits", stats.CacheHits)
			return cur, nil
		}
		cur = next
	}

	return nil, errors.Wrap(ErrNoConvergence, "after %d sweeps", maxSweeps)
}

// SimplifyAll simplifies each expression on its own, running at most
// workers of them at a time.
func (eb *ExprBuilder) SimplifyAll(ctx context.Context, opts DriverOptions, exprs []*BVExprPtr, workers int) ([]*BVExprPtr, error) {
	res := make([]*BVExprPtr, len(exprs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, e := range exprs {
		i, e := i, e

		g.Go(func() error {
			r, err := eb.SimplifyWithOptions(ctx, opts, e)
			if err != nil {
				return errors.Wrap(err, "expr %d", i)
			}
			res[i] = r[0]
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// sweep is a single bottom up pass. Each node is simplified at most once
// and its replacement is recorded in repl.
type sweep struct {
	eb     *ExprBuilder
	tr     tlog.Span
	prover Prover
	uses   UseCounts

	repl    *immutable.SortedMap
	changes int
}

func (s *sweep) visit(e *BVExprPtr) (*BVExprPtr, error) {
	if v, ok := s.repl.Get(e.Id()); ok {
		return v.(*BVExprPtr), nil
	}

	children := e.e.subexprs()
	newChildren := make([]*BVExprPtr, len(children))
	rebuild := false
	for i, c := range children {
		nc, err := s.visit(c)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		rebuild = rebuild || nc.Id() != c.Id()
	}

	cur := e
	if rebuild {
		var err error
		cur, err = s.eb.withChildren(e, newChildren)
		if err != nil {
			return nil, errors.Wrap(err, "rebuild %v", KindName(e.Kind()))
		}
	}

	res, err := Simplify(cur, s.eb, s.uses)
	if err != nil {
		return nil, errors.Wrap(err, "simplify %v", KindName(cur.Kind()))
	}

	out := cur
	switch res.Outcome {
	case FoldedTo:
		out = res.Value
	case RewrittenTo:
		out, err = s.eb.Build(cur.Kind(), res.Operands)
		if err != nil {
			return nil, errors.Wrap(err, "build rewritten %v", KindName(cur.Kind()))
		}
	}

	if res.Outcome != Unchanged {
		s.changes++

		if s.tr.If("rewrite") {
			s.tr.Printw("rewrite", "outcome", res.Outcome, "from", cur, "to", out)
		}

		if err = s.check(cur, out); err != nil {
			return nil, err
		}
	}

	s.repl = s.repl.Set(e.Id(), out)
	return out, nil
}

func (s *sweep) check(from, to *BVExprPtr) error {
	if s.prover == nil {
		return nil
	}

	r, err := s.prover.Equivalent(from, to)
	if err != nil {
		return errors.Wrap(err, "prove %v", from)
	}

	switch r {
	case RESULT_UNSAT:
		return nil
	case RESULT_SAT:
		return errors.Wrap(ErrUnsoundRewrite, "%v => %v", from, to)
	case RESULT_UNKNOWN:
		s.tr.Printw("rewrite not proven", "from", from, "to", to)
		return nil
	}

	return errors.New("prover failed on %v", from)
}

// uintptrComparer orders node Ids. Implements immutable.Comparer.
type uintptrComparer struct{}

func (c *uintptrComparer) Compare(a, b interface{}) int {
	if i, j := a.(uintptr), b.(uintptr); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

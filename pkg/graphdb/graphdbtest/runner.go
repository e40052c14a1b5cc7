// Package graphdbtest provides a scripted graphdb.Runner for repository tests.
package graphdbtest

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

// Expectation is one scripted query. Patterns match the rendered Cypher.
type Expectation struct {
	pattern    *regexp.Regexp
	params     map[string]any
	rows       []graphdb.Record
	err        error
	repeatable bool
	calls      int
}

// WithParam requires the query to carry key=value.
func (e *Expectation) WithParam(key string, value any) *Expectation {
	if e.params == nil {
		e.params = map[string]any{}
	}
	e.params[key] = value
	return e
}

// WillReturn sets the rows handed back to the caller.
func (e *Expectation) WillReturn(rows ...graphdb.Record) *Expectation {
	e.rows = rows
	return e
}

// WillFail makes the query fail with err wrapped in a StoreError.
func (e *Expectation) WillFail(err error) *Expectation {
	e.err = err
	return e
}

// Repeatable lets the expectation match any number of calls.
func (e *Expectation) Repeatable() *Expectation {
	e.repeatable = true
	return e
}

func (e *Expectation) matches(cypher string, params map[string]any) bool {
	if !e.pattern.MatchString(cypher) {
		return false
	}
	for k, want := range e.params {
		got, ok := params[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Call is a query that reached the runner.
type Call struct {
	Tx     string
	Name   string
	Cypher string
	Params map[string]any
}

// Runner is a thread-safe graphdb.Runner driven by expectations.
type Runner struct {
	mu           sync.Mutex
	prefix       string
	offline      bool
	expectations []*Expectation
	calls        []Call
}

var _ graphdb.Runner = (*Runner)(nil)

// New returns an online runner with the given label prefix.
func New(prefix string) *Runner {
	return &Runner{prefix: prefix}
}

// Offline returns a runner that reports every call as unavailable.
func Offline() *Runner {
	return &Runner{offline: true}
}

// Expect registers a query expectation. The pattern is a regular expression.
func (r *Runner) Expect(pattern string) *Expectation {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &Expectation{pattern: regexp.MustCompile(pattern)}
	r.expectations = append(r.expectations, e)
	return e
}

func (r *Runner) Available() bool { return !r.offline }

func (r *Runner) Prefix() string { return r.prefix }

func (r *Runner) Read(ctx context.Context, q graphdb.Query) ([]graphdb.Record, error) {
	return r.exec(ctx, "", q)
}

func (r *Runner) Write(ctx context.Context, q graphdb.Query) ([]graphdb.Record, error) {
	return r.exec(ctx, "", q)
}

func (r *Runner) WriteTx(ctx context.Context, name string, queries ...graphdb.Query) error {
	if r.offline {
		return graphdb.ErrUnavailable
	}
	for _, q := range queries {
		if _, err := r.exec(ctx, name, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, tx string, q graphdb.Query) ([]graphdb.Record, error) {
	if r.offline {
		return nil, graphdb.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, &graphdb.StoreError{Query: q.Name, Err: err}
	}
	cypher := graphdb.RenderLabels(r.prefix, q.Cypher)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Tx: tx, Name: q.Name, Cypher: cypher, Params: q.Params})

	for _, e := range r.expectations {
		if (!e.repeatable && e.calls > 0) || !e.matches(cypher, q.Params) {
			continue
		}
		e.calls++
		if e.err != nil {
			return nil, &graphdb.StoreError{Query: q.Name, Err: e.err}
		}
		return e.rows, nil
	}
	return nil, &graphdb.StoreError{Query: q.Name, Err: fmt.Errorf("unexpected query %q: %s", q.Name, compact(cypher))}
}

// Calls returns every query seen so far in call order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// ExpectationsWereMet reports expectations that never matched.
func (r *Runner) ExpectationsWereMet() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []string
	for _, e := range r.expectations {
		if e.calls == 0 {
			pending = append(pending, e.pattern.String())
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("unmet expectations: %s", strings.Join(pending, "; "))
	}
	return nil
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

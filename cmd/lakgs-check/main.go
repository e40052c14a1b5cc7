package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/pkg/config"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

type result struct {
	Name   string
	OK     bool
	Detail string
}

func main() {
	var (
		ensureSchema bool
		envFile      string
		timeout      time.Duration
	)
	flag.BoolVar(&ensureSchema, "ensure-schema", false, "Create missing indexes and constraints before checking")
	flag.StringVar(&envFile, "env-file", ".env", "Path to the dotenv file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall check timeout")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repo := content.Load(cfg.Content.Dir, zap.NewNop())
	graph, connErr := graphdb.Open(ctx, graphdb.Config{
		URI:            cfg.Graph.URI,
		User:           cfg.Graph.User,
		Password:       cfg.Graph.Password,
		Database:       cfg.Graph.Database,
		LabelPrefix:    cfg.Graph.LabelPrefix,
		ConnectTimeout: cfg.Graph.ConnectTimeout,
		QueryTimeout:   cfg.Graph.QueryTimeout,
	}, zap.NewNop())
	defer graph.Close(context.Background()) //nolint:errcheck

	results := checkContent(repo.Files())
	results = append(results, checkGraph(ctx, graph, connErr, ensureSchema)...)
	if !report(os.Stdout, results) {
		os.Exit(1)
	}
}

func checkContent(files []content.FileStatus) []result {
	out := make([]result, 0, len(files))
	for _, f := range files {
		r := result{Name: "content:" + f.Name, OK: true}
		switch {
		case f.Err != nil:
			r.OK, r.Detail = false, f.Err.Error()
		case !f.Present && f.Name == content.FileConcepts:
			r.Detail = "optional, not present"
		case !f.Present:
			r.OK, r.Detail = false, "missing"
		default:
			r.Detail = fmt.Sprintf("%d records", f.Records)
			if f.Skipped > 0 {
				r.Detail += fmt.Sprintf(", %d without id skipped", f.Skipped)
			}
		}
		out = append(out, r)
	}
	return out
}

func checkGraph(ctx context.Context, graph graphdb.Runner, connErr error, ensureSchema bool) []result {
	if connErr != nil || !graph.Available() {
		detail := "not connected"
		if connErr != nil {
			detail = connErr.Error()
		}
		return []result{{Name: "graph:connectivity", Detail: detail}}
	}
	out := []result{{Name: "graph:connectivity", OK: true, Detail: "connected"}}

	if ensureSchema {
		r := result{Name: "graph:ensure-schema", OK: true, Detail: "indexes created"}
		if err := graphdb.EnsureSchema(ctx, graph); err != nil {
			r.OK, r.Detail = false, err.Error()
		}
		out = append(out, r)
	}

	labels, err := graphdb.Labels(ctx, graph)
	if err != nil {
		out = append(out, result{Name: "graph:labels", Detail: err.Error()})
	} else {
		have := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			have[l] = struct{}{}
		}
		var missing []string
		for _, l := range graphdb.CoreLabels {
			if _, ok := have[graph.Prefix()+l]; !ok {
				missing = append(missing, graph.Prefix()+l)
			}
		}
		r := result{Name: "graph:labels", OK: len(missing) == 0, Detail: fmt.Sprintf("%d labels", len(labels))}
		if len(missing) > 0 {
			r.Detail = "missing " + strings.Join(missing, ",")
		}
		out = append(out, r)
	}

	live, err := graphdb.Indexes(ctx, graph)
	if err != nil {
		return append(out, result{Name: "graph:indexes", Detail: err.Error()})
	}
	missing := graphdb.MissingIndexes(graph.Prefix(), live)
	r := result{Name: "graph:indexes", OK: len(missing) == 0, Detail: fmt.Sprintf("%d required present", len(graphdb.RequiredIndexes(graph.Prefix())))}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Name)
		}
		r.Detail = "missing " + strings.Join(names, ",")
	}
	return append(out, r)
}

// report prints one line per check and reports whether all passed.
func report(w io.Writer, results []result) bool {
	passed := true
	for _, r := range results {
		status := "PASS"
		if !r.OK {
			status = "FAIL"
			passed = false
		}
		fmt.Fprintf(w, "%s %s %s\n", status, r.Name, r.Detail)
	}
	return passed
}

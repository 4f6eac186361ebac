package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// JSON writes the table to stdout or to a file. A file is written to a
// temporary sibling and renamed into place, under an exclusive lock on
// "<path>.lock", so readers never see a partial result.
//
// Body shapes:
//
//	map:    {"token": [tf, df], ...}
//	sorted: [{"token": ..., "tf": ..., "df": ...}, ...] by descending tf
//	split:  {"term-frequency": {...}, "document-frequency": {...}}
//
// With report set the body is wrapped as {"report": {...}, "counts": body}.
type JSON struct {
	path   string
	sorted bool
	split  bool
	report bool
	stdout io.Writer
}

func NewJSON(out config.OutputConfig, stdout io.Writer) *JSON {
	return &JSON{
		path:   out.Path,
		sorted: out.Sorted,
		split:  out.Split,
		report: out.Report,
		stdout: stdout,
	}
}

func (j *JSON) Name() string { return "json" }

func (j *JSON) Close() error { return nil }

func (j *JSON) Write(ctx context.Context, res *aggregator.Result) error {
	if j.path == "" || j.path == "-" {
		return j.encode(j.stdout, res)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	lock := flock.New(j.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return apperrors.Newf(apperrors.ErrLocked, "%s is being written by another run", j.path)
	}
	defer lock.Unlock()

	f, err := os.CreateTemp(dir, filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp output file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if err := j.encode(f, res); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		return fmt.Errorf("renaming output into place: %w", err)
	}
	return nil
}

func (j *JSON) encode(w io.Writer, res *aggregator.Result) error {
	bw := bufio.NewWriterSize(w, 1<<16)
	var body any
	switch {
	case j.split:
		body = splitForm(res.Counts)
	case j.sorted:
		body = res.Counts.Sorted()
	default:
		body = mapForm(res.Counts)
	}
	if j.report {
		body = struct {
			Report aggregator.Report `json:"report"`
			Counts any               `json:"counts"`
		}{res.Report, body}
	}
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

func mapForm(c vocab.Counts) map[string][2]int64 {
	out := make(map[string][2]int64, len(c))
	for tok, p := range c {
		out[tok] = [2]int64{p.TF, p.DF}
	}
	return out
}

type split struct {
	TF map[string]int64 `json:"term-frequency"`
	DF map[string]int64 `json:"document-frequency"`
}

func splitForm(c vocab.Counts) split {
	s := split{TF: make(map[string]int64, len(c)), DF: make(map[string]int64, len(c))}
	for tok, p := range c {
		s.TF[tok] = p.TF
		s.DF[tok] = p.DF
	}
	return s
}

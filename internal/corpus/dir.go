package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Dir is a directory tree where every regular file is a unit. A plain file
// path is treated as a tree holding that one file.
type Dir struct {
	root          string
	dec           Decoder
	includeHidden bool
	logger        *slog.Logger
}

func NewDir(root string, dec Decoder, includeHidden bool) *Dir {
	return &Dir{
		root:          root,
		dec:           dec,
		includeHidden: includeHidden,
		logger:        slog.Default().With("component", "corpus-dir", "root", root),
	}
}

// List walks the tree and returns one unit per file. Files are read lazily
// by the worker that folds them.
func (d *Dir) List(ctx context.Context) ([]Unit, error) {
	var units []Unit
	var total int64
	err := d.walk(ctx, func(u Unit, size int64) error {
		units = append(units, u)
		total += size
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info("corpus listed",
		"units", len(units),
		"size", humanize.Bytes(uint64(total)),
	)
	return units, nil
}

// Stream walks the tree and emits each file as soon as it is found.
func (d *Dir) Stream(ctx context.Context, emit func(Unit) error) error {
	return d.walk(ctx, func(u Unit, _ int64) error {
		return emit(u)
	})
}

// walk visits every regular file below root. A path below root that cannot
// be read or stat'ed becomes a failed unit so the failure policy decides
// its fate; only an unreadable root aborts the walk.
func (d *Dir) walk(ctx context.Context, visit func(u Unit, size int64) error) error {
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if path != d.root && entry != nil && !d.includeHidden && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err != nil {
			if path == d.root {
				return apperrors.Newf(apperrors.ErrUnreadable, "walking %s: %v", path, err)
			}
			if visitErr := visit(failedUnit{name: path, err: apperrors.Newf(apperrors.ErrUnreadable, "walking %s: %v", path, err)}, 0); visitErr != nil {
				return visitErr
			}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return visit(failedUnit{name: path, err: apperrors.Newf(apperrors.ErrUnreadable, "stat %s: %v", path, err)}, 0)
		}
		return visit(&fileUnit{path: path, dec: d.dec}, info.Size())
	})
	if err != nil {
		return fmt.Errorf("walking corpus %s: %w", d.root, err)
	}
	return nil
}

type fileUnit struct {
	path string
	dec  Decoder
}

func (u *fileUnit) Name() string { return u.path }

func (u *fileUnit) Documents() ([]Document, error) {
	data, err := os.ReadFile(u.path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUnreadable, "reading %s: %v", u.path, err)
	}
	return u.dec.Decode(u.path, data)
}

// failedUnit stands in for a path the walk could not read.
type failedUnit struct {
	name string
	err  error
}

func (u failedUnit) Name() string { return u.name }

func (u failedUnit) Documents() ([]Document, error) { return nil, u.err }

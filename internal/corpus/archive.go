package corpus

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

var archiveSuffixes = []string{".tar", ".tar.gz", ".tgz", ".tar.zst", ".tzst", ".tar.lz4"}

// IsArchive reports whether path names a supported tar archive.
func IsArchive(path string) bool {
	lower := strings.ToLower(path)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// Archive streams the regular entries of a (possibly compressed) tar file.
// Entries can only be read in order, so an archive is always consumed by a
// single producer. A read error leaves the stream position unknown, so it
// ends the run under either failure policy.
type Archive struct {
	path   string
	dec    Decoder
	logger *slog.Logger
}

func NewArchive(path string, dec Decoder) *Archive {
	return &Archive{
		path:   path,
		dec:    dec,
		logger: slog.Default().With("component", "corpus-archive", "path", path),
	}
}

func (a *Archive) Stream(ctx context.Context, emit func(Unit) error) error {
	f, err := os.Open(a.path)
	if err != nil {
		return apperrors.Newf(apperrors.ErrUnreadable, "opening archive %s: %v", a.path, err)
	}
	defer f.Close()

	r, closeFn, err := decompress(a.path, f)
	if err != nil {
		return apperrors.Newf(apperrors.ErrUnreadable, "opening archive %s: %v", a.path, err)
	}
	defer closeFn()

	tr := tar.NewReader(r)
	var entries int
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apperrors.Newf(apperrors.ErrUnreadable, "reading archive %s after %d entries: %v", a.path, entries, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return apperrors.Newf(apperrors.ErrUnreadable, "reading entry %s: %v", hdr.Name, err)
		}
		entries++
		total += int64(len(data))
		if err := emit(NewUnit(hdr.Name, data, a.dec)); err != nil {
			return err
		}
	}
	a.logger.Info("archive consumed",
		"entries", entries,
		"size", humanize.Bytes(uint64(total)),
	)
	return nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(lower, ".tar.lz4"):
		return lz4.NewReader(r), func() {}, nil
	case strings.HasSuffix(lower, ".tar"):
		return r, func() {}, nil
	default:
		return nil, nil, apperrors.Newf(apperrors.ErrUnsupported, "unknown archive type %s", path)
	}
}

package corpus

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

var testDecoder = Decoder{TextField: "newsText", SourceField: "newsSource"}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		unit    string
		data    string
		want    []Document
		wantErr error
	}{
		{
			name: "plain text",
			unit: "a.txt",
			data: "नमस्ते संसार",
			want: []Document{{Text: "नमस्ते संसार"}},
		},
		{
			name: "no extension is text",
			unit: "dir/article",
			data: "x",
			want: []Document{{Text: "x"}},
		},
		{
			name: "json array",
			unit: "batch.JSON",
			data: `[{"newsText": "एक", "newsSource": "a.com", "newsId": "1"}, {"newsText": "दुई"}]`,
			want: []Document{{Text: "एक", Source: "a.com"}, {Text: "दुई"}},
		},
		{
			name: "json single object",
			unit: "msg.json",
			data: `{"newsText": "तीन", "newsSource": null}`,
			want: []Document{{Text: "तीन"}},
		},
		{
			name: "empty json array",
			unit: "empty.json",
			data: `[]`,
			want: []Document{},
		},
		{name: "broken json", unit: "bad.json", data: `[{"newsText": `, wantErr: apperrors.ErrMalformed},
		{name: "missing text field", unit: "bad.json", data: `[{"body": "x"}]`, wantErr: apperrors.ErrMalformed},
		{name: "text not a string", unit: "bad.json", data: `[{"newsText": 4}]`, wantErr: apperrors.ErrMalformed},
		{name: "source not a string", unit: "bad.json", data: `[{"newsText": "x", "newsSource": []}]`, wantErr: apperrors.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testDecoder.Decode(tt.unit, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeHTML(t *testing.T) {
	page := `<html><head><title>t</title><style>.x{}</style></head>
<body><script>var a = 1;</script><p>नेपाल सरकार</p></body></html>`
	docs, err := testDecoder.Decode("page.html", []byte(page))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if !bytes.Contains([]byte(docs[0].Text), []byte("नेपाल सरकार")) {
		t.Errorf("text %q does not contain the paragraph", docs[0].Text)
	}
	if bytes.Contains([]byte(docs[0].Text), []byte("var a")) {
		t.Errorf("text %q contains script source", docs[0].Text)
	}
}

func unitNames(units []Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name()
	}
	sort.Strings(names)
	return names
}

func TestDirList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "क")
	writeFile(t, filepath.Join(root, "sub", "b.json"), `[{"newsText": "ख"}]`)
	writeFile(t, filepath.Join(root, ".hidden"), "ग")
	writeFile(t, filepath.Join(root, ".git", "c.txt"), "घ")

	units, err := NewDir(root, testDecoder, false).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{filepath.Join(root, "a.txt"), filepath.Join(root, "sub", "b.json")}
	if got := unitNames(units); !slices.Equal(got, want) {
		t.Errorf("units = %v, want %v", got, want)
	}

	all, err := NewDir(root, testDecoder, true).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("with hidden files got %d units, want 4", len(all))
	}
}

func TestDirStreamMatchesList(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1.txt", "2.txt", "d/3.txt", "d/e/4.txt"} {
		writeFile(t, filepath.Join(root, name), "क ख")
	}
	d := NewDir(root, testDecoder, false)
	listed, err := d.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var streamed []Unit
	err = d.Stream(context.Background(), func(u Unit) error {
		streamed = append(streamed, u)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !slices.Equal(unitNames(listed), unitNames(streamed)) {
		t.Errorf("stream %v differs from list %v", unitNames(streamed), unitNames(listed))
	}
}

func TestDirStreamStopsOnEmitError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "1.txt"), "क")
	writeFile(t, filepath.Join(root, "2.txt"), "ख")
	stop := errors.New("stop")
	calls := 0
	err := NewDir(root, testDecoder, false).Stream(context.Background(), func(Unit) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("emit called %d times, want 1", calls)
	}
}

func TestDirSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".only.txt")
	writeFile(t, path, "क")
	units, err := NewDir(path, testDecoder, false).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(units) != 1 || units[0].Name() != path {
		t.Errorf("units = %v, want [%s]", unitNames(units), path)
	}
}

func TestFileUnitUnreadable(t *testing.T) {
	u := &fileUnit{path: filepath.Join(t.TempDir(), "gone.txt"), dec: testDecoder}
	if _, err := u.Documents(); !errors.Is(err, apperrors.ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

func TestDirUnreadableSubdirBecomesFailedUnit(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok", "a.txt"), "x")
	locked := filepath.Join(root, "locked")
	if err := os.Mkdir(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	units, err := NewDir(root, testDecoder, false).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{locked, filepath.Join(root, "ok", "a.txt")}
	if got := unitNames(units); !slices.Equal(got, want) {
		t.Fatalf("units = %v, want %v", got, want)
	}
	if _, err := units[0].Documents(); !errors.Is(err, apperrors.ErrUnreadable) {
		t.Errorf("locked Documents error = %v, want ErrUnreadable", err)
	}
	if _, err := units[1].Documents(); err != nil {
		t.Errorf("readable Documents: %v", err)
	}
}

func TestDirMissingRootFails(t *testing.T) {
	_, err := NewDir(filepath.Join(t.TempDir(), "absent"), testDecoder, false).List(context.Background())
	if !errors.Is(err, apperrors.ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

type archiveEntry struct {
	name string
	body string
	dir  bool
}

func buildTar(t *testing.T, w io.Writer, entries []archiveEntry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeArchive(t *testing.T, name string, entries []archiveEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	switch filepath.Ext(name) {
	case ".gz", ".tgz":
		zw := gzip.NewWriter(f)
		buildTar(t, zw, entries)
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		buildTar(t, zw, entries)
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	case ".lz4":
		zw := lz4.NewWriter(f)
		buildTar(t, zw, entries)
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	default:
		buildTar(t, f, entries)
	}
	return path
}

func TestArchiveStream(t *testing.T) {
	entries := []archiveEntry{
		{name: "docs/", dir: true},
		{name: "docs/a.txt", body: "क ख"},
		{name: "docs/b.json", body: `[{"newsText": "ग", "newsSource": "x.com"}, {"newsText": "घ"}]`},
	}
	for _, name := range []string{"c.tar", "c.tar.gz", "c.tgz", "c.tar.zst", "c.tar.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := writeArchive(t, name, entries)
			if !IsArchive(path) {
				t.Fatalf("IsArchive(%s) = false", path)
			}
			var docs []Document
			var names []string
			err := NewArchive(path, testDecoder).Stream(context.Background(), func(u Unit) error {
				names = append(names, u.Name())
				d, err := u.Documents()
				docs = append(docs, d...)
				return err
			})
			if err != nil {
				t.Fatalf("Stream: %v", err)
			}
			if want := []string{"docs/a.txt", "docs/b.json"}; !slices.Equal(names, want) {
				t.Errorf("entries = %v, want %v", names, want)
			}
			want := []Document{{Text: "क ख"}, {Text: "ग", Source: "x.com"}, {Text: "घ"}}
			if !slices.Equal(docs, want) {
				t.Errorf("documents = %+v, want %+v", docs, want)
			}
		})
	}
}

func TestArchiveCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tar.gz")
	writeFile(t, path, "this is not gzip")
	err := NewArchive(path, testDecoder).Stream(context.Background(), func(Unit) error { return nil })
	if !errors.Is(err, apperrors.ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "क")
	archive := writeArchive(t, "c.tgz", []archiveEntry{{name: "a.txt", body: "क"}})

	s, err := Open(config.InputConfig{Path: root}, config.KafkaConfig{})
	if err != nil {
		t.Fatalf("Open dir: %v", err)
	}
	if _, ok := s.(*Dir); !ok {
		t.Errorf("Open(dir) = %T, want *Dir", s)
	}
	s, err = Open(config.InputConfig{Path: archive}, config.KafkaConfig{})
	if err != nil {
		t.Fatalf("Open archive: %v", err)
	}
	if _, ok := s.(*Archive); !ok {
		t.Errorf("Open(archive) = %T, want *Archive", s)
	}
	if _, err := Open(config.InputConfig{Path: filepath.Join(root, "missing")}, config.KafkaConfig{}); !errors.Is(err, apperrors.ErrUnreadable) {
		t.Errorf("Open(missing) error = %v, want ErrUnreadable", err)
	}
}

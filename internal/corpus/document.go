// Package corpus enumerates documents for counting. Input is split into
// units (a file, an archive entry, a Kafka message); a unit is the granule
// of partitioning and of failure, and yields zero or more documents.
package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Document is one text payload and its optional origin label.
type Document struct {
	Text   string
	Source string
}

// Unit yields the documents of one input item.
type Unit interface {
	Name() string
	Documents() ([]Document, error)
}

// Lister can enumerate every unit up front, which allows static
// partitioning across workers.
type Lister interface {
	List(ctx context.Context) ([]Unit, error)
}

// Streamer hands units to emit one at a time from a single goroutine.
// Stream stops and returns emit's error if emit fails.
type Streamer interface {
	Stream(ctx context.Context, emit func(Unit) error) error
}

// Decoder turns raw payload bytes into documents, choosing the format from
// the unit name: .json holds an array of document objects (or a single
// object), .html/.htm is reduced to its readable text, and anything else is
// one plain-text document.
type Decoder struct {
	TextField   string
	SourceField string
}

func (d Decoder) Decode(name string, data []byte) ([]Document, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return d.decodeJSON(name, data)
	case ".html", ".htm":
		text, err := htmlText(data)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformed, "%s: %v", name, err)
		}
		return []Document{{Text: text}}, nil
	default:
		return []Document{{Text: string(data)}}, nil
	}
}

func (d Decoder) decodeJSON(name string, data []byte) ([]Document, error) {
	data = bytes.TrimSpace(data)
	var objects []map[string]json.RawMessage
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformed, "%s: %v", name, err)
		}
		objects = append(objects, obj)
	} else if err := json.Unmarshal(data, &objects); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformed, "%s: %v", name, err)
	}

	docs := make([]Document, 0, len(objects))
	for i, obj := range objects {
		raw, ok := obj[d.TextField]
		if !ok {
			return nil, apperrors.Newf(apperrors.ErrMalformed, "%s: document %d has no %q field", name, i, d.TextField)
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc.Text); err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformed, "%s: document %d field %q: %v", name, i, d.TextField, err)
		}
		if raw, ok := obj[d.SourceField]; ok && string(raw) != "null" {
			if err := json.Unmarshal(raw, &doc.Source); err != nil {
				return nil, apperrors.Newf(apperrors.ErrMalformed, "%s: document %d field %q: %v", name, i, d.SourceField, err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// memUnit is a unit whose payload is already in memory.
type memUnit struct {
	name string
	data []byte
	dec  Decoder
}

func (u *memUnit) Name() string { return u.name }

func (u *memUnit) Documents() ([]Document, error) {
	return u.dec.Decode(u.name, u.data)
}

// NewUnit wraps an in-memory payload.
func NewUnit(name string, data []byte, dec Decoder) Unit {
	return &memUnit{name: name, data: data, dec: dec}
}

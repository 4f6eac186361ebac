package corpus

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/kafka"
)

// Open picks the document source described by cfg: a Kafka partition, a
// tar archive, or a directory tree (a single file counts as a tree of
// one).
func Open(in config.InputConfig, kcfg config.KafkaConfig) (Streamer, error) {
	dec := Decoder{TextField: in.TextField, SourceField: in.SourceField}
	if in.Kafka {
		return NewTopic(kafka.NewConsumer(kcfg), dec), nil
	}
	if _, err := os.Stat(in.Path); err != nil {
		return nil, apperrors.Newf(apperrors.ErrUnreadable, "input %s: %v", in.Path, err)
	}
	if IsArchive(in.Path) {
		return NewArchive(in.Path, dec), nil
	}
	return NewDir(in.Path, dec, in.IncludeHidden), nil
}

package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/ayusman/silexa/internal/features"
)

// Artifact layout: magic, version byte, zstd-compressed JSON envelope.
var artifactMagic = []byte("SLXM")

const artifactVersion byte = 1

const maxArtifactSize = 256 << 20

type envelope struct {
	Kind      string          `json:"kind"`
	Features  int             `json:"features"`
	Classes   []string        `json:"classes"`
	TrainedAt time.Time       `json:"trained_at"`
	Payload   json.RawMessage `json:"payload"`
}

type payloader interface {
	payload() ([]byte, error)
}

type decodeFunc func(classes []string, payload []byte) (Model, error)

var decoders = map[string]decodeFunc{
	KindForest:   decodeForest,
	KindCentroid: decodeCentroid,
}

var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxArtifactSize))
	})
)

// Encode serializes m into the artifact format.
func Encode(m Model) ([]byte, error) {
	p, ok := m.(payloader)
	if !ok {
		return nil, fmt.Errorf("model kind %q cannot be persisted", m.Kind())
	}
	payload, err := p.payload()
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", m.Kind(), err)
	}
	body, err := json.Marshal(envelope{
		Kind:      m.Kind(),
		Features:  features.Size,
		Classes:   m.Classes(),
		TrainedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	enc, err := zstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	out := make([]byte, 0, len(artifactMagic)+1+len(body)/4)
	out = append(out, artifactMagic...)
	out = append(out, artifactVersion)
	return enc.EncodeAll(body, out), nil
}

// Decode parses an artifact produced by Encode. Every failure wraps ErrArtifactCorrupt.
func Decode(data []byte) (Model, error) {
	m, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactCorrupt, err)
	}
	return m, nil
}

func decode(data []byte) (Model, error) {
	header := len(artifactMagic) + 1
	if len(data) < header || !bytes.Equal(data[:len(artifactMagic)], artifactMagic) {
		return nil, errors.New("bad magic")
	}
	if v := data[len(artifactMagic)]; v != artifactVersion {
		return nil, fmt.Errorf("unsupported version %d", v)
	}

	dec, err := zstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	body, err := dec.DecodeAll(data[header:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if env.Features != features.Size {
		return nil, fmt.Errorf("model expects %d features, want %d", env.Features, features.Size)
	}
	if len(env.Classes) == 0 {
		return nil, errors.New("model has no classes")
	}
	if !slices.IsSorted(env.Classes) || len(slices.Compact(slices.Clone(env.Classes))) != len(env.Classes) {
		return nil, errors.New("model classes are not sorted and distinct")
	}
	decodeKind, ok := decoders[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q", env.Kind)
	}
	m, err := decodeKind(env.Classes, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", env.Kind, err)
	}
	return m, nil
}

// Save persists m at path. The artifact is written to a temporary file in the
// same directory, synced and renamed over path, so readers never observe a
// partially written artifact and a failed Save leaves the previous one intact.
func Save(path string, m Model) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install artifact: %w", err)
	}
	return nil
}

// Load reads the artifact at path.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Decode(data)
}

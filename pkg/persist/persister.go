package persist

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// filePerm is the permission mode for persisted artifacts.
const filePerm = 0o644

// Persister handles I/O for a specific state type at a fixed path using a Codec.
type Persister[T any] struct {
	path  string
	codec Codec
}

// NewPersister creates a persister for the given file path and codec.
func NewPersister[T any](path string, codec Codec) *Persister[T] {
	return &Persister[T]{
		path:  path,
		codec: codec,
	}
}

// Path returns the artifact path.
func (p *Persister[T]) Path() string { return p.path }

// Exists reports whether the artifact file is present.
func (p *Persister[T]) Exists() bool {
	_, err := os.Stat(p.path)

	return err == nil
}

// Save writes state atomically: encode to a temp file in the target
// directory, then rename over the destination.
func (p *Persister[T]) Save(state *T) error {
	dir := filepath.Dir(p.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	encodeErr := p.codec.Encode(tmp, state)

	closeErr := tmp.Close()

	if encodeErr != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("encode state: %w", encodeErr)
	}

	if closeErr != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("close temp state file: %w", closeErr)
	}

	chmodErr := os.Chmod(tmp.Name(), filePerm)
	if chmodErr != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("chmod state file: %w", chmodErr)
	}

	renameErr := os.Rename(tmp.Name(), p.path)
	if renameErr != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("rename state file: %w", renameErr)
	}

	return nil
}

// Load restores state from the artifact file. A non-nil pre hook runs on the
// raw bytes before decoding, so callers can reject structurally invalid
// documents without a partial decode.
func (p *Persister[T]) Load(pre func([]byte) error) (*T, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if pre != nil {
		preErr := pre(data)
		if preErr != nil {
			return nil, fmt.Errorf("validate state file: %w", preErr)
		}
	}

	var state T

	decodeErr := p.codec.Decode(bytes.NewReader(data), &state)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode state: %w", decodeErr)
	}

	return &state, nil
}

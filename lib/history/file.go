package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FileStore keeps the history as a json array of keys, the format the
// upload_history.json file has always used.
type FileStore struct {
	path string
}

func NewFileStore(path string) FileStore {
	return FileStore{path: path}
}

func (s FileStore) Path() string {
	return s.path
}

func (s FileStore) read() (*Set, error) {
	contents, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return NewSet(), nil
	}

	var keys []string
	err = json.Unmarshal(contents, &keys)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return NewSet(keys...), nil
}

// write replaces the history file through a synced temp file and a rename
// so a crash leaves either the old or the new file, never half of one.
func (s FileStore) write(set *Set) error {
	keys := set.Keys()
	if keys == nil {
		keys = []string{}
	}
	contents, err := json.Marshal(keys)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return err
	}

	dirHandle, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer dirHandle.Close()
	if err := dirHandle.Sync(); err != nil {
		slog.Debug("failed to sync history directory", "dir", dir, "err", err)
	}
	return nil
}

func (s FileStore) Load(ctx context.Context) (*Set, error) {
	_, span := tracer.Start(ctx, "FileStore:Load")
	defer span.End()

	set, err := s.read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read history file")
		return nil, fmt.Errorf("load history: %w", err)
	}
	span.SetAttributes(attribute.Int("history.keys", set.Len()))
	return set, nil
}

func (s FileStore) Persist(ctx context.Context, set *Set) error {
	_, span := tracer.Start(ctx, "FileStore:Persist")
	defer span.End()

	current, err := s.read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read history file")
		return fmt.Errorf("persist history: %w", err)
	}
	current.Merge(set)

	err = s.write(current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write history file")
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s FileStore) RecordConfirmed(ctx context.Context, key string) error {
	_, span := tracer.Start(ctx, "FileStore:RecordConfirmed")
	defer span.End()

	current, err := s.read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read history file")
		return fmt.Errorf("record confirmed '%s': %w", key, err)
	}
	if !current.Add(key) {
		return nil
	}

	err = s.write(current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write history file")
		return fmt.Errorf("record confirmed '%s': %w", key, err)
	}
	return nil
}

func (s FileStore) Close() error {
	return nil
}

package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File store errors.
var (
	ErrBadNamespace = errors.New("store: invalid namespace")
)

// FileProvider keeps one YAML document per namespace under a base
// directory. Byte records are base64 encoded.
type FileProvider struct {
	dir string
}

// NewFileProvider creates the base directory if needed.
func NewFileProvider(dir string) (*FileProvider, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	return &FileProvider{dir: dir}, nil
}

// Open implements Provider.
func (p *FileProvider) Open(namespace string) (Store, error) {
	if namespace == "" || namespace != filepath.Base(namespace) {
		return nil, ErrBadNamespace
	}
	fs := &fileStore{path: filepath.Join(p.dir, namespace+".yaml")}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

type fileDoc struct {
	Bytes map[string]string `yaml:"records"`
	Bools map[string]bool   `yaml:"flags"`
}

type fileStore struct {
	mu   sync.Mutex
	path string
	doc  fileDoc
}

func (f *fileStore) load() error {
	f.doc = fileDoc{
		Bytes: make(map[string]string),
		Bools: make(map[string]bool),
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(data, &f.doc); err != nil {
		return fmt.Errorf("store: parse %s: %w", f.path, err)
	}
	if f.doc.Bytes == nil {
		f.doc.Bytes = make(map[string]string)
	}
	if f.doc.Bools == nil {
		f.doc.Bools = make(map[string]bool)
	}
	return nil
}

// flush writes the document via a temp file and rename so a crash leaves
// either the old or the new document, never a torn one.
func (f *fileStore) flush() error {
	data, err := yaml.Marshal(&f.doc)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// GetBytes implements Store.
func (f *fileStore) GetBytes(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc, ok := f.doc.Bytes[name]
	if !ok {
		return nil, ErrNotFound
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("store: record %s: %w", name, err)
	}
	return b, nil
}

// PutBytes implements Store.
func (f *fileStore) PutBytes(name string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Bytes[name] = base64.StdEncoding.EncodeToString(value)
	return f.flush()
}

// GetBool implements Store.
func (f *fileStore) GetBool(name string, def bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.doc.Bools[name]; ok {
		return v
	}
	return def
}

// PutBool implements Store.
func (f *fileStore) PutBool(name string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Bools[name] = value
	return f.flush()
}

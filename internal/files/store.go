// Package files performs the create/read/delete operations the assistant's
// tools run against plain text files on disk.
//
// Names are joined to the store root as given. The store does not restrict
// path traversal; whoever feeds it names owns that trust boundary.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// ErrNotFound is returned by Read and Delete when the named file does not exist.
var ErrNotFound = errors.New("file not found")

// Kind classifies filesystem failures other than a missing file.
type Kind int

const (
	KindOther Kind = iota
	KindPermission
	KindIsDir
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission denied"
	case KindIsDir:
		return "is a directory"
	case KindInvalid:
		return "invalid path"
	default:
		return "filesystem error"
	}
}

// PathError reports a failed operation on a file that does exist, or whose
// name could not be used at all.
type PathError struct {
	Op   string
	Name string
	Kind Kind
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Name, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Name, e.Kind, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

type Store struct {
	root string
}

// NewStore returns a store resolving names against root. An empty root means
// the process working directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

func (s *Store) path(name string) string {
	if s.root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// Create writes content to name, replacing whatever was there.
func (s *Store) Create(name, content string) error {
	if name == "" {
		return &PathError{Op: "create", Name: name, Kind: KindInvalid}
	}
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return classify("create", name, err)
	}
	return nil
}

func (s *Store) Read(name string) (string, error) {
	if name == "" {
		return "", &PathError{Op: "read", Name: name, Kind: KindInvalid}
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", classify("read", name, err)
	}
	return string(data), nil
}

// Delete removes name. Directories are refused even when empty.
func (s *Store) Delete(name string) error {
	if name == "" {
		return &PathError{Op: "delete", Name: name, Kind: KindInvalid}
	}
	p := s.path(name)
	info, err := os.Lstat(p)
	if err != nil {
		return classify("delete", name, err)
	}
	if info.IsDir() {
		return &PathError{Op: "delete", Name: name, Kind: KindIsDir}
	}
	if err := os.Remove(p); err != nil {
		return classify("delete", name, err)
	}
	return nil
}

func classify(op, name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, name, ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return &PathError{Op: op, Name: name, Kind: KindPermission, Err: err}
	case errors.Is(err, syscall.EISDIR):
		return &PathError{Op: op, Name: name, Kind: KindIsDir, Err: err}
	case errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG),
		errors.Is(err, syscall.EINVAL):
		return &PathError{Op: op, Name: name, Kind: KindInvalid, Err: err}
	default:
		return &PathError{Op: op, Name: name, Kind: KindOther, Err: err}
	}
}

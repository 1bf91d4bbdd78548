package imagestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrOutsideRoot = errors.New("image path outside storage root")
	ErrNotAFile    = errors.New("image path is not a regular file")
)

// Upload is an incoming image. A nil Upload or one with no bytes is treated
// as absent.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

func (u *Upload) Empty() bool {
	return u == nil || u.Content == nil || u.Size <= 0
}

// Store keeps report images in a single flat directory and addresses them by
// a public URL of the form BaseURL + "/" + name.
type Store struct {
	root    string
	baseURL string
}

func New(root, baseURL string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("image root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create image root %s: %w", abs, err)
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "/uploads/report-images"
	}

	return &Store{root: filepath.Clean(abs), baseURL: baseURL}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) BaseURL() string {
	return s.baseURL
}

// Save writes the upload under a random name that keeps the original
// extension and returns its public URL. Empty uploads return "".
func (s *Store) Save(up *Upload) (string, error) {
	if up.Empty() {
		return "", nil
	}

	name := uuid.NewString() + extension(up.Filename)
	dest, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, up.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	return s.baseURL + "/" + name, nil
}

// Delete removes the file behind url. URLs that are empty or not managed by
// this store are ignored, as are files that no longer exist.
func (s *Store) Delete(url string) error {
	path, ok, err := s.Path(url)
	if err != nil || !ok {
		return err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotAFile
	}
	return os.Remove(path)
}

// Path maps a managed URL to its location on disk. ok is false for URLs
// outside BaseURL.
func (s *Store) Path(url string) (string, bool, error) {
	url = strings.TrimSpace(url)
	prefix := s.baseURL + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false, nil
	}
	path, err := s.resolve(strings.TrimPrefix(url, prefix))
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func (s *Store) resolve(name string) (string, error) {
	dest := filepath.Clean(filepath.Join(s.root, name))
	if filepath.Dir(dest) != s.root {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return dest, nil
}

func extension(filename string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

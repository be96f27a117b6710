package filestore

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// File: JSON-документ целиком в одном файле. Все операции под мьютексом,
// запись через временный файл и rename, чтобы читатель не увидел половину.
// Межпроцессной блокировки нет: писатель должен быть один.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	return nil
}

// readLocked возвращает nil, если файла ещё нет.
func (f *File) readLocked() ([]byte, error) {
	if err := f.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read store file")
	}
	return b, nil
}

func (f *File) writeLocked(data []byte) error {
	if err := f.ensureDir(); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write store file")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "replace store file")
	}
	return nil
}

func (f *File) View(fn func(data []byte) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := f.readLocked()
	if err != nil {
		return err
	}
	return fn(b)
}

// Update: read-modify-write. Если fn вернул nil-данные, файл не перезаписывается.
func (f *File) Update(fn func(data []byte) ([]byte, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := f.readLocked()
	if err != nil {
		return err
	}
	out, err := fn(b)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return f.writeLocked(out)
}

var (
	idMu  sync.Mutex
	idRnd = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateID: id записей резервного хранилища: fb_<millis>_<6 символов base36>.
func GenerateID(now time.Time) string {
	idMu.Lock()
	n := idRnd.Int63n(36 * 36 * 36 * 36 * 36 * 36)
	idMu.Unlock()
	suffix := strconv.FormatInt(n, 36)
	for len(suffix) < 6 {
		suffix = "0" + suffix
	}
	return "fb_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

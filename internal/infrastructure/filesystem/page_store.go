// Package filesystem реализует read-only доступ к файлам фронтенда.
//
// PageStore отвечает только за чтение: сервер никогда ничего не пишет в корень.
// Один и тот же http.FileSystem используется и для HTML страниц, и для
// делегирования остальных файлов в http.FileServer, поэтому оба пути видят
// одинаковый корень и одинаковые правила очистки путей.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	domainerrors "github.com/Haleralex/ticketing-devserver/internal/domain/errors"
)

// errInvalidUTF8 - страница не является корректным UTF-8 текстом.
var errInvalidUTF8 = errors.New("page is not valid UTF-8")

// PageStore читает HTML страницы относительно корневой директории.
type PageStore struct {
	root string
	fsys http.FileSystem
}

// NewPageStore создаёт PageStore с корнем root.
// Пустой root означает текущую рабочую директорию.
func NewPageStore(root string) *PageStore {
	if root == "" {
		root = "."
	}
	return &PageStore{
		root: root,
		fsys: http.Dir(root),
	}
}

// Root возвращает корневую директорию.
func (s *PageStore) Root() string {
	return s.root
}

// FileSystem возвращает файловую систему для http.FileServer.
func (s *PageStore) FileSystem() http.FileSystem {
	return s.fsys
}

// ReadPage читает страницу name (путь запроса, например "/login.html")
// и возвращает её текст.
//
// Ошибки:
//   - ErrInvalidPath - путь содержит ".." сегмент
//   - ErrPageNotFound - файла нет
//   - ErrPageRead - любая другая ошибка (директория, права, не UTF-8)
func (s *PageStore) ReadPage(ctx context.Context, name string) (string, error) {
	if containsDotDot(name) {
		return "", domainerrors.NewInvalidPathError(name)
	}
	if err := ctx.Err(); err != nil {
		return "", domainerrors.NewPageReadError(name, err)
	}

	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domainerrors.NewPageNotFound(name, err)
		}
		return "", domainerrors.NewPageReadError(name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", domainerrors.NewPageReadError(name, err)
	}
	if info.IsDir() {
		return "", domainerrors.NewPageReadError(name, fmt.Errorf("%s is a directory", name))
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", domainerrors.NewPageReadError(name, err)
	}
	if !utf8.Valid(data) {
		return "", domainerrors.NewPageReadError(name, errInvalidUTF8)
	}

	return string(data), nil
}

// Check проверяет, что корень существует и является читаемой директорией.
func (s *PageStore) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat root %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", s.root)
	}

	d, err := os.Open(s.root)
	if err != nil {
		return fmt.Errorf("open root %s: %w", s.root, err)
	}
	return d.Close()
}

// AbsRoot возвращает абсолютный путь корня (для логов и health).
func (s *PageStore) AbsRoot() string {
	abs, err := filepath.Abs(s.root)
	if err != nil {
		return s.root
	}
	return abs
}

// containsDotDot повторяет проверку net/http: ".." как отдельный сегмент пути.
func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }

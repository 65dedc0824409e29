// Package injection вставляет API токен в HTML страницы во время запроса.
//
// Токен не хранится ни в одном статическом файле: сервер держит его в памяти
// и добавляет inline <script> прямо перед подключением js/config.js, так что
// к моменту выполнения config.js глобальная переменная уже определена.
//
// Совпадение тега строго буквальное. Если тег отформатирован иначе
// (лишние атрибуты, другие кавычки), вставка не выполняется.
package injection

import (
	"encoding/json"
	"strings"
)

const (
	// DefaultConfigScriptTag - тег, перед которым вставляется токен.
	DefaultConfigScriptTag = `<script src="js/config.js"></script>`
	// DefaultGlobalName - имя глобального свойства window.
	DefaultGlobalName = "BASEROW_API_TOKEN"
	// DefaultToken - небезопасное значение по умолчанию.
	DefaultToken = "YOUR_SECURE_TOKEN_HERE"
)

// Result описывает исход одной вставки.
type Result struct {
	Body     string
	Injected bool
}

// Injector - неизменяемый после создания, безопасен для конкурентного использования.
type Injector struct {
	tag     string
	global  string
	snippet string
}

// Option настраивает Injector.
type Option func(*Injector)

// WithConfigScriptTag задаёт тег-якорь.
func WithConfigScriptTag(tag string) Option {
	return func(i *Injector) {
		i.tag = tag
	}
}

// WithGlobalName задаёт имя свойства window.
func WithGlobalName(name string) Option {
	return func(i *Injector) {
		i.global = name
	}
}

// New создаёт Injector для заданного токена.
func New(token string, opts ...Option) *Injector {
	i := &Injector{
		tag:    DefaultConfigScriptTag,
		global: DefaultGlobalName,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.snippet = Snippet(i.global, token)
	return i
}

// Snippet возвращает inline script, присваивающий токен window.<global>.
//
// Токен кодируется как JSON строка с HTML-экранированием, поэтому кавычки и
// "</script>" внутри токена не ломают разметку. Для обычных токенов результат
// совпадает с `<script>window.NAME = "token";</script>`.
func Snippet(global, token string) string {
	literal, err := json.Marshal(token)
	if err != nil {
		// json.Marshal не возвращает ошибку для string
		literal = []byte(`""`)
	}
	return "<script>window." + global + " = " + string(literal) + ";</script>"
}

// Tag возвращает тег-якорь.
func (i *Injector) Tag() string {
	return i.tag
}

// GlobalName возвращает имя свойства window.
func (i *Injector) GlobalName() string {
	return i.global
}

// Snippet возвращает готовый inline script.
func (i *Injector) Snippet() string {
	return i.snippet
}

// Inject вставляет script перед первым вхождением тега.
// Если тега нет, page возвращается без изменений.
func (i *Injector) Inject(page string) Result {
	idx := strings.Index(page, i.tag)
	if idx < 0 || i.tag == "" {
		return Result{Body: page}
	}

	var b strings.Builder
	b.Grow(len(page) + len(i.snippet))
	b.WriteString(page[:idx])
	b.WriteString(i.snippet)
	b.WriteString(page[idx:])

	return Result{Body: b.String(), Injected: true}
}

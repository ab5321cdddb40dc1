// Package domain содержит общие доменные типы: ошибки бизнес-уровня
// и модель вызывающего пользователя с политикой владения ресурсами.
package domain

import "errors"

// Виды доменных ошибок. Обработчики сопоставляют их с HTTP-статусами
// через errors.Is.
var (
	// ErrNotFound ресурс с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrForbidden роль или владение не позволяют выполнить операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict нарушение бизнес-правила: шаблон используется расписанием,
	// лимит сотрудников тенанта исчерпан, пользователь уже привязан к тенанту.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput входные данные не прошли доменную валидацию.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists уникальное значение уже занято (например, username).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials неверная пара логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error — доменная ошибка с человеко-читаемым сообщением для клиента.
// Kind — один из сентинелов выше, Message попадает в JSON-ответ как есть.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap позволяет errors.Is находить вид ошибки.
func (e *Error) Unwrap() error { return e.Kind }

// NotFound возвращает доменную ошибку вида ErrNotFound.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

// Forbidden возвращает доменную ошибку вида ErrForbidden.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

// Conflict возвращает доменную ошибку вида ErrConflict.
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// Invalid возвращает доменную ошибку вида ErrInvalidInput.
func Invalid(msg string) error { return &Error{Kind: ErrInvalidInput, Message: msg} }

// AlreadyExists возвращает доменную ошибку вида ErrAlreadyExists.
func AlreadyExists(msg string) error { return &Error{Kind: ErrAlreadyExists, Message: msg} }

package domain

// Роли пользователей системы.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Caller описывает аутентифицированного инициатора запроса,
// извлечённого из проверенного JWT токена.
type Caller struct {
	UserUID string
	Role    string
}

// IsAdmin сообщает, имеет ли вызывающий административную роль.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Owns сообщает, совпадает ли идентификатор вызывающего с владельцем ресурса.
func (c Caller) Owns(ownerUID string) bool {
	return c.UserUID == ownerUID
}

// Authorize реализует единую политику владения: администратору разрешено всё,
// остальным — только операции над собственными ресурсами.
// Возвращает ErrForbidden при нарушении политики.
func Authorize(caller Caller, ownerUID string) error {
	if caller.IsAdmin() || caller.Owns(ownerUID) {
		return nil
	}
	return Forbidden("forbidden")
}

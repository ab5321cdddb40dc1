// Package term реализует календарную арифметику для сроков подписки.
//
// В отличие от time.AddDate, прибавление месяца здесь не переносит дату
// в следующий месяц при переполнении (31 января + 1 месяц = 28/29 февраля,
// а не 2/3 марта). Для годового срока 29 февраля даёт 28 февраля
// следующего года.
package term

import (
	"fmt"
	"time"
)

// Term — срок действия подписки, определяющий цену и длину окна валидности.
type Term string

// Поддерживаемые сроки подписки.
const (
	Monthly Term = "monthly"
	Yearly  Term = "yearly"
)

// Parse проверяет, что строка является одним из поддерживаемых сроков.
func Parse(s string) (Term, error) {
	switch Term(s) {
	case Monthly, Yearly:
		return Term(s), nil
	default:
		return "", fmt.Errorf("unknown subscription term: %q", s)
	}
}

// String возвращает строковое представление срока.
func (t Term) String() string {
	return string(t)
}

// AddTo возвращает окончание окна валидности, отсчитанное от from:
// плюс один календарный месяц для Monthly и плюс один календарный год
// для Yearly, с прижатием дня к концу целевого месяца.
func (t Term) AddTo(from time.Time) time.Time {
	if t == Yearly {
		return addMonthsClamped(from, 12)
	}
	return addMonthsClamped(from, 1)
}

// addMonthsClamped прибавляет months календарных месяцев, прижимая день
// к последнему дню целевого месяца при переполнении.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// daysIn возвращает число дней в месяце.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

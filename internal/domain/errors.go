package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки сессии и оптимистичных мутаций (клиентская сторона)
var (
	ErrUnauthorized    = errors.New("unauthorized")      // 401, ещё не было повтора — лечится refresh'ем
	ErrSessionExpired  = errors.New("session_expired")   // refresh не удался или его нет
	ErrRefreshRejected = errors.New("refresh_rejected")  // сам эндпоинт refresh ответил ошибкой/таймаутом
	ErrNetwork         = errors.New("network")           // ответа нет вообще
	ErrMutation        = errors.New("mutation_rejected") // сервер отклонил спекулятивную мутацию
)

// Бизнес-ошибки сервера (маппятся на HTTP коды)
var (
	ErrBadParams        = errors.New("bad_params")         // 400
	ErrForbidden        = errors.New("forbidden")          // 403
	ErrNotFound         = errors.New("not_found")          // 404
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrConflict         = errors.New("conflict")           // 409
	ErrUnexpected       = errors.New("unexpected")         // 500
)

// APIError — не-2xx ответ Resource API, разобранный из конверта ошибки.
type APIError struct {
	Status int
	Code   int
	Text   string
}

func (e *APIError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s (code %d)", e.Status, e.Text, e.Code)
}

// Unwrap даёт errors.Is(err, ErrUnauthorized) и т.п. по HTTP-статусу.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusBadRequest:
		return ErrBadParams
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusMethodNotAllowed:
		return ErrMethodNotAllowed
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrUnexpected
	}
}

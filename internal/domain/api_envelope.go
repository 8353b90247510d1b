package domain

// Числовые коды ошибок в конверте
const (
	ErrCodeBadParams        = 1000
	ErrCodeUnauth           = 1001
	ErrCodeForbidden        = 1003
	ErrCodeNotFound         = 1004
	ErrCodeMethodNotAllowed = 1005
	ErrCodeConflict         = 1009
	ErrCodeUnexpected       = 1500
)

// Конверт ошибки: {"error":{"code":N,"text":"..."}}. Успешные ответы отдаются без конверта.
type APIErrorBody struct {
	Code int    `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

type APIEnvelope struct {
	Error *APIErrorBody `json:"error,omitempty"`
}

func Fail(code int, text string) APIEnvelope {
	return APIEnvelope{Error: &APIErrorBody{Code: code, Text: text}}
}

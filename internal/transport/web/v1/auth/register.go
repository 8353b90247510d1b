package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

// HandlerRegister обрабатывает POST /v1/auth/register
type HandlerRegister struct {
	Log    *log.Logger
	Users  domain.UsersRepo
	Hasher domain.PasswordHasher
	Tokens Tokens
}

type registerRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role,omitempty"`
	Bio      string      `json:"bio,omitempty"`
}

// Register godoc
// @Summary     Register new user
// @Description Регистрация и сразу вход: в ответе пара токенов и профиль.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body registerRequest true "email, password, name, role?, bio?"
// @Success     201 {object} authResponse
// @Failure     400 {object} domain.APIEnvelope
// @Failure     409 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /v1/auth/register [post]
func (h *HandlerRegister) Register(w http.ResponseWriter, r *http.Request) {
	const op = "auth.register"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	var req registerRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	// 1) Валидация
	req.Email = domain.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = domain.RoleLearner
	}
	if !domain.ValidEmail(req.Email) || !domain.ValidPassword(req.Password) || req.Name == "" || !req.Role.Valid() {
		logx.Error(h.Log, reqID, op, "validation failed", domain.ErrBadParams, "email", req.Email, "role", req.Role)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	// 2) Хэш пароля
	hashStr, err := h.Hasher.Hash(req.Password)
	if err != nil {
		logx.Error(h.Log, reqID, op, "hash failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	// 3) Создаём пользователя; занятый email — ErrConflict из репозитория
	u, err := h.Users.CreateUser(r.Context(), domain.NewUser{
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		Bio:      req.Bio,
		PassHash: []byte(hashStr),
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create user failed", err, "email", req.Email)
		v1.WriteDomainError(w, r, err)
		return
	}

	// 4) Пара токенов
	pair, _, err := h.Tokens.IssuePair(r.Context(), u)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue tokens failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "role", u.Role)
	v1.WriteJSON(w, r, http.StatusCreated, newAuthResponse(pair, u))
}

// Package session — HTTP-клиент с bearer-токеном и одной тихой попыткой
// переаутентификации через refresh-токен на каждый запрос.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/EgorLis/eng-community/internal/domain"
)

// ErrAuthHeaderPreset — заголовок Authorization проставляет только клиент сессии
var ErrAuthHeaderPreset = errors.New("session: request already has Authorization header")

const RefreshPath = "/auth/token/refresh"

type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTP — транспорт; если nil, создаётся http.Client с Timeout
	HTTP *http.Client
	// OnSessionExpired вызывается после очистки пары (аналог редиректа на /login)
	OnSessionExpired func()
}

type Client struct {
	http       *http.Client
	refreshURL string
	creds      domain.CredentialStore
	log        *log.Logger
	onExpired  func()
	flight     singleflight.Group
	// onDone получает путь состояний каждого завершённого запроса
	onDone func(trail []State)
}

func New(cfg Config, creds domain.CredentialStore, logger *log.Logger) *Client {
	hc := cfg.HTTP
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		http:       hc,
		refreshURL: strings.TrimRight(cfg.BaseURL, "/") + RefreshPath,
		creds:      creds,
		log:        logger,
		onExpired:  cfg.OnSessionExpired,
	}
}

// Send отправляет запрос с текущим access-токеном.
// Не-401 ответ возвращается как есть. На первый 401 клиент обновляет access и
// повторяет запрос ровно один раз; 401 на повторе отдаётся вызывающему без изменений.
// Если refresh-токена нет или refresh не удался, пара очищается и возвращается ErrSessionExpired.
func (c *Client) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return nil, ErrAuthHeaderPreset
	}
	if err := makeReplayable(req); err != nil {
		return nil, err
	}
	p := newPending(req)
	resp, err := c.send(ctx, p)
	c.finish(p)
	return resp, err
}

func (c *Client) send(ctx context.Context, p *pending) (*http.Response, error) {
	creds, err := c.creds.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	resp, err := c.attempt(ctx, p, creds.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || p.retried {
		return resp, nil
	}

	// первый 401: помечаем и пробуем refresh
	p.retried = true
	drain(resp)
	p.to(StateRefreshing)
	c.logf(p, "401, refreshing access token")

	if !creds.HasRefresh() {
		// пару могли сохранить, пока запрос был в полёте
		if creds, err = c.creds.Load(ctx); err != nil || !creds.HasRefresh() {
			return nil, c.expire(ctx, p, fmt.Errorf("%w: no refresh credential", domain.ErrSessionExpired))
		}
	}

	access, err := c.refreshShared(ctx, creds.RefreshToken)
	if err != nil {
		p.to(StateRefreshFailed)
		return nil, c.expire(ctx, p, fmt.Errorf("%w: %w", domain.ErrSessionExpired, err))
	}
	if err := c.creds.SetAccess(ctx, access); err != nil {
		return nil, fmt.Errorf("store refreshed access: %w", err)
	}

	p.to(StateRetried)
	return c.attempt(ctx, p, access)
}

func (c *Client) attempt(ctx context.Context, p *pending, access string) (*http.Response, error) {
	r := p.req.Clone(ctx)
	if p.req.GetBody != nil {
		body, err := p.req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind body: %w", err)
		}
		r.Body = body
	}
	if access != "" {
		r.Header.Set("Authorization", "Bearer "+access)
	}

	p.to(StateSent)
	resp, err := c.http.Do(r)
	if err != nil {
		p.to(StateFailed)
		c.logf(p, "network error: %v", err)
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, r.Method, r.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		p.to(StateSucceeded)
	} else {
		p.to(StateFailed)
	}
	c.logf(p, "status=%d", resp.StatusCode)
	return resp, nil
}

// expire очищает пару и сообщает приложению об истечении сессии
func (c *Client) expire(ctx context.Context, p *pending, cause error) error {
	p.to(StateSessionExpired)
	c.logf(p, "session expired: %v", cause)
	if err := c.creds.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Printf("clear credentials failed: %v", err)
	}
	if c.onExpired != nil {
		c.onExpired()
	}
	return cause
}

// refreshShared склеивает одновременные refresh по одному и тому же токену в один вызов
func (c *Client) refreshShared(ctx context.Context, refresh string) (string, error) {
	v, err, shared := c.flight.Do(refresh, func() (any, error) {
		return c.Refresh(context.WithoutCancel(ctx), refresh)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Println("refresh shared with concurrent request")
	}
	return v.(string), nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Refresh выпускает новый access через POST /auth/token/refresh.
// Идёт мимо Send (без Authorization и без повторов); любая неудача — ErrRefreshRejected.
func (c *Client) Refresh(ctx context.Context, refresh string) (string, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refresh})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshRejected, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshRejected, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrRefreshRejected, resp.StatusCode)
	}
	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %w", domain.ErrRefreshRejected, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrRefreshRejected)
	}
	c.log.Println("access token refreshed")
	return out.AccessToken, nil
}

// makeReplayable буферизует тело, если его нельзя перечитать через GetBody
func makeReplayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	buf, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("buffer body: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(buf)), nil }
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(buf))
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// finish пишет путь запроса по состояниям
func (c *Client) finish(p *pending) {
	names := make([]string, len(p.trail))
	for i, s := range p.trail {
		names[i] = string(s)
	}
	c.logf(p, "done trail=%s", strings.Join(names, ">"))
	if c.onDone != nil {
		c.onDone(append([]State(nil), p.trail...))
	}
}

func (c *Client) logf(p *pending, format string, args ...any) {
	c.log.Printf("%s %s state=%s retried=%t: %s",
		p.req.Method, p.req.URL.Path, p.state, p.retried, fmt.Sprintf(format, args...))
}

// Anonymous — отправка без токена и без refresh: login и register.
// 401 здесь означает неверные данные, а не истёкшую сессию.
type Anonymous struct{ c *Client }

func (c *Client) Anonymous() Anonymous { return Anonymous{c: c} }

func (a Anonymous) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return nil, ErrAuthHeaderPreset
	}
	resp, err := a.c.http.Do(req.WithContext(ctx))
	if err != nil {
		a.c.log.Printf("%s %s anonymous network error: %v", req.Method, req.URL.Path, err)
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, req.Method, req.URL.Path, err)
	}
	a.c.log.Printf("%s %s anonymous status=%d", req.Method, req.URL.Path, resp.StatusCode)
	return resp, nil
}

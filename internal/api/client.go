// Package api — типизированные вызовы Resource API поверх клиента сессии.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/EgorLis/eng-community/internal/domain"
)

// Sender — клиент сессии (session.Client)
type Sender interface {
	Send(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Client struct {
	base   string
	sender Sender
}

func New(baseURL string, sender Sender) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), sender: sender}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do выполняет запрос и возвращает тело 2xx ответа; иначе *domain.APIError
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", domain.ErrNetwork, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	e := &domain.APIError{Status: status}
	var env domain.APIEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		e.Code, e.Text = env.Error.Code, env.Error.Text
		return e
	}
	// произвольное тело вида {"message": "..."}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err == nil {
		e.Text = msg.Message
	}
	return e
}

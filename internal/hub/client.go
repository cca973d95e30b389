// Package hub habla con el hub de eventos de core: login por credenciales de
// servicio y publicacion de envelopes {topic, payload} con bearer token.
package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrUpstreamAuth = errors.New("el hub rechazo las credenciales")

type Client struct {
	http     *resty.Client
	username string
	password string

	mu    sync.Mutex
	token string
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		username: username,
		password: password,
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// login pide un token nuevo y lo cachea. Refrescos concurrentes pueden
// duplicarse; el login es idempotente y raro frente al volumen de publish.
func (c *Client) login(ctx context.Context) (string, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": c.username, "password": c.password}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return "", fmt.Errorf("login al hub: %w", err)
	}
	if !resp.IsSuccess() || out.AccessToken == "" {
		return "", fmt.Errorf("%w: status %d", ErrUpstreamAuth, resp.StatusCode())
	}
	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	return out.AccessToken, nil
}

func (c *Client) cachedToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type envelope struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// Publish envia {topic, payload} a /hub/publish. El token se adquiere lazy en
// el primer uso; ante un 401 se refresca y reintenta exactamente una vez.
// Cualquier otro fallo, o un segundo 401, es un error de publicacion.
func (c *Client) Publish(ctx context.Context, topic string, payload any) error {
	token := c.cachedToken()
	if token == "" {
		var err error
		if token, err = c.login(ctx); err != nil {
			return err
		}
	}

	resp, err := c.post(ctx, token, topic, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		// token vencido: un refresh, un reintento
		if token, err = c.login(ctx); err != nil {
			return err
		}
		if resp, err = c.post(ctx, token, topic, payload); err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			return fmt.Errorf("%w: 401 tras refrescar token", ErrUpstreamAuth)
		}
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("publicando %s: status %d", topic, resp.StatusCode())
	}
	return nil
}

func (c *Client) post(ctx context.Context, token, topic string, payload any) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(envelope{Topic: topic, Payload: payload}).
		Post("/hub/publish")
	if err != nil {
		return nil, fmt.Errorf("publicando %s: %w", topic, err)
	}
	return resp, nil
}

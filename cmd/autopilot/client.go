package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/service"
)

// Client drives one session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateSession starts a session on configID and makes it the current one
func (c *Client) CreateSession(configID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Tick advances the current session by frames
func (c *Client) Tick(frames int) (*service.TickResult, error) {
	var result service.TickResult
	if err := c.do(http.MethodPost, c.sessionPath("/tick"), map[string]int{"frames": frames}, &result); err != nil {
		return nil, fmt.Errorf("tick: %w", err)
	}
	return &result, nil
}

// ActivatePowerUp requests kind on the current session
func (c *Client) ActivatePowerUp(kind engine.PowerUpKind) (*service.PowerUpResult, error) {
	var result service.PowerUpResult
	if err := c.do(http.MethodPost, c.sessionPath("/powerups/"+string(kind)), nil, &result); err != nil {
		return nil, fmt.Errorf("activate %s: %w", kind, err)
	}
	return &result, nil
}

// DeleteSession removes the current session
func (c *Client) DeleteSession() error {
	if err := c.do(http.MethodDelete, c.sessionPath(""), nil, nil); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(method, path string, reqBody, result interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s - %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s - %s", resp.Status, string(respBody))
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

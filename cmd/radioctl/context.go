package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// commandContext carries the persistent flags and the API client shared by
// all subcommands.
type commandContext struct {
	serverFlag *string
	jsonFlag   *bool
	client     *http.Client
}

func newCommandContext(serverFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		jsonFlag:   jsonFlag,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(*c.serverFlag), "/")
}

// wsURL converts the configured base URL into a websocket URL for the given
// API path.
func (c *commandContext) wsURL(path string) (string, error) {
	parsed, err := url.Parse(c.baseURL())
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path = path
	return parsed.String(), nil
}

func (c *commandContext) get(path string, dest any) error {
	return c.do(http.MethodGet, path, dest)
}

func (c *commandContext) post(path string, dest any) error {
	return c.do(http.MethodPost, path, dest)
}

func (c *commandContext) do(method, path string, dest any) error {
	req, err := http.NewRequest(method, c.baseURL()+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("console request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("console: %s", apiErr.Error)
		}
		return fmt.Errorf("console returned HTTP %d", resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

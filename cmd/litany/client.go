package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"litany/internal/daemon"
)

type apiClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

func newAPIClient(address, token string) (*apiClient, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("daemon API address is not configured")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &apiClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) Status(ctx context.Context) (daemon.StatusView, error) {
	var view daemon.StatusView
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &view)
	return view, err
}

func (c *apiClient) StartProcess(ctx context.Context, req daemon.StartProcessRequest) (daemon.ProcessView, error) {
	var view daemon.ProcessView
	err := c.do(ctx, http.MethodPost, "/api/processes", nil, req, &view)
	return view, err
}

func (c *apiClient) Process(ctx context.Context, id string) (daemon.ProcessView, error) {
	var view daemon.ProcessView
	err := c.do(ctx, http.MethodGet, "/api/processes/"+url.PathEscape(id), nil, nil, &view)
	return view, err
}

func (c *apiClient) List(ctx context.Context, stages []string) ([]daemon.ProcessView, error) {
	query := url.Values{}
	for _, stage := range stages {
		query.Add("stage", stage)
	}
	var payload struct {
		Processes []daemon.ProcessView `json:"processes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/processes", query, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Processes, nil
}

func (c *apiClient) Titles(ctx context.Context, id string) (daemon.TitlesView, error) {
	var view daemon.TitlesView
	err := c.do(ctx, http.MethodGet, "/api/processes/"+url.PathEscape(id)+"/titles", nil, nil, &view)
	return view, err
}

func (c *apiClient) SelectTitle(ctx context.Context, id, title string) error {
	return c.do(ctx, http.MethodPost, "/api/processes/"+url.PathEscape(id)+"/title", nil, daemon.SelectTitleRequest{Title: title}, nil)
}

func (c *apiClient) Result(ctx context.Context, id string) (daemon.ResultView, error) {
	var view daemon.ResultView
	err := c.do(ctx, http.MethodGet, "/api/processes/"+url.PathEscape(id)+"/result", nil, nil, &view)
	return view, err
}

func (c *apiClient) TestNotification(ctx context.Context) (bool, string, error) {
	var payload struct {
		Sent    bool   `json:"sent"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/api/test-notification", nil, nil, &payload)
	return payload.Sent, payload.Message, err
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body, target any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.base.Host)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return errors.New(payload.Error)
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}

func wrapDialError(err error, host string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("connect to daemon at %s: %v; start the daemon with `litanyd`", host, opErr)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

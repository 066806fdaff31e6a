package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPSource reads miss_counter from the oracle module's REST endpoint.
type HTTPSource struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

// MissEndpoint builds {rpc}/oracle/validators/{valoper}/miss.
func MissEndpoint(rpc, valoper string) string {
	return strings.TrimRight(strings.TrimSpace(rpc), "/") +
		"/oracle/validators/" + url.PathEscape(strings.TrimSpace(valoper)) + "/miss"
}

type missResponse struct {
	MissCounter json.RawMessage `json:"miss_counter"`
}

func (s *HTTPSource) Fetch(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("miss endpoint: %s", resp.Status)
	}

	var body missResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode miss response: %w", err)
	}
	return parseCounter(body.MissCounter)
}

// parseCounter accepts both a JSON number and the quoted form REST gateways
// use for uint64 fields.
func parseCounter(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("miss_counter missing")
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("miss_counter: %w", err)
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("miss_counter %q: %w", s, err)
	}
	return n, nil
}

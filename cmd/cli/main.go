package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/oraclemonitor/internal/domain"
	"github.com/hamed0406/oraclemonitor/internal/httpapi"
)

func main() {
	api := strings.TrimRight(os.Getenv("API_BASE"), "/")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")
	client := &http.Client{Timeout: 10 * time.Second}

	var st httpapi.StatusResponse
	if err := getJSON(client, api+"/api/status", key, &st); err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}

	state := "UNHEALTHY"
	if st.Healthy {
		state = "healthy"
	}
	s := st.Snapshot
	fmt.Printf("validator:        %s (%s)\n", s.Validator, state)
	fmt.Printf("miss counter:     %d (window baseline %d, +%d)\n", s.LastCount, s.State.Baseline, st.MissDifference)
	fmt.Printf("tolerance:        %d misses / %ds quiet period\n", st.Policy.MissTolerance, st.Policy.MissTolerancePeriodSec)
	fmt.Printf("ticks:            %d (fetch errors %d)\n", s.Ticks, s.FetchErrors)
	if s.LastError != "" {
		fmt.Printf("last error:       %s\n", s.LastError)
	}
	if !s.State.LastAlert.IsZero() {
		fmt.Printf("last alert:       %s\n", s.State.LastAlert.Format(time.RFC3339))
	}

	var alerts []domain.AlertEvent
	if err := getJSON(client, api+"/api/alerts?limit=5", key, &alerts); err != nil {
		fmt.Println("Error reading alerts:", err)
		os.Exit(1)
	}
	for _, a := range alerts {
		mark := "sent"
		if !a.Delivered {
			mark = "FAILED: " + a.Error
		}
		fmt.Printf("  %s  +%d misses  %s\n", a.SentAt.Format(time.RFC3339), a.MissDifference, mark)
	}
}

func getJSON(c *http.Client, url, key string, v any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("API returned status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

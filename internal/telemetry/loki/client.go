// Package loki pushes import events to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/telemetry"
)

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters that are invalid or awkward in Loki label values.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

const jobLabel = "inventory-audit"

// Emitter sends import events to Loki as JSON log lines.
type Emitter struct {
	baseURL string
	client  *http.Client
}

// NewEmitter returns an emitter pushing to baseURL (e.g. http://localhost:3100), or nil when
// baseURL is empty. client may be nil to use http.DefaultClient.
func NewEmitter(baseURL string, client *http.Client) *Emitter {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Emitter{baseURL: baseURL, client: client}
}

type eventLine struct {
	Event      string `json:"event"`
	AuditID    int64  `json:"audit_id"`
	LabID      int64  `json:"lab_id"`
	LabName    string `json:"lab_name"`
	LabCreated bool   `json:"lab_created"`
	Items      int    `json:"items"`
	Warnings   int    `json:"warnings"`
	AuditDate  string `json:"audit_date,omitempty"`
}

// Emit pushes one line for event, labelled with the lab id and whether warnings were recorded.
func (e *Emitter) Emit(ctx context.Context, event *telemetry.ImportEvent) error {
	if e == nil || event == nil {
		return nil
	}
	line := eventLine{
		Event:      "inventory.audit.imported",
		AuditID:    event.AuditID,
		LabID:      event.LabID,
		LabName:    event.LabName,
		LabCreated: event.LabCreated,
		Items:      event.Items,
		Warnings:   event.Warnings,
	}
	if !event.AuditDate.IsZero() {
		line.AuditDate = isotime.Format(event.AuditDate)
	}
	raw, err := json.Marshal(line)
	if err != nil {
		return err
	}
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return e.push(ctx, ts, string(raw), map[string]string{
		"lab_id":       strconv.FormatInt(event.LabID, 10),
		"has_warnings": strconv.FormatBool(event.Warnings > 0),
	})
}

// push sends a single log line to Loki. Returns an error if the HTTP request fails or Loki
// returns non-2xx.
func (e *Emitter) push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = jobLabel
	for k, v := range labels {
		if sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	body := PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(e.baseURL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}

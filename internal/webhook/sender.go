// Package webhook posts job outcome events to configured endpoints.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ibp/labeld/internal/config"
)

const (
	EventJobPrinted  = "job_printed"
	EventJobDropped  = "job_dropped"
	EventJobRejected = "job_rejected"
)

type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      JobEvent  `json:"data"`
	Signature string    `json:"signature,omitempty"`
}

type JobEvent struct {
	JobID        string `json:"job_id,omitempty"`
	PackageID    string `json:"package_id,omitempty"`
	Attempts     int    `json:"attempts"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type task struct {
	endpoint config.WebhookEndpoint
	payload  *Payload
}

// Sender delivers events from a single worker goroutine so slow endpoints
// never block the dispatch loop. Delivery is fire-and-forget: a full task
// queue drops the event with a log line.
type Sender struct {
	endpoints  []config.WebhookEndpoint
	httpClient *http.Client
	tasks      chan *task
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewSender(cfg *config.WebhooksConfig) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Sender{
		endpoints:  cfg.Endpoints,
		httpClient: &http.Client{Timeout: timeout},
		tasks:      make(chan *task, 100),
		stopCh:     make(chan struct{}),
	}
}

func (s *Sender) Start() {
	s.wg.Add(1)
	go s.worker()
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// NotifyJobEvent satisfies the dispatch loop's Notifier interface.
func (s *Sender) NotifyJobEvent(event, jobID, packageID string, attempts int, errMsg string) {
	if len(s.endpoints) == 0 {
		return
	}

	for _, endpoint := range s.endpoints {
		t := &task{
			endpoint: endpoint,
			payload: &Payload{
				Event:     event,
				Timestamp: time.Now(),
				Data: JobEvent{
					JobID:        jobID,
					PackageID:    packageID,
					Attempts:     attempts,
					ErrorMessage: errMsg,
				},
			},
		}

		select {
		case s.tasks <- t:
		default:
			slog.Warn("webhook queue full, dropping event", "event", event, "url", endpoint.URL)
		}
	}
}

func (s *Sender) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.tasks:
			if err := s.send(t); err != nil {
				slog.Error("failed to deliver webhook", "event", t.payload.Event, "url", t.endpoint.URL, "error", err)
			}
		}
	}
}

func (s *Sender) send(t *task) error {
	dataBytes, err := json.Marshal(t.payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if t.endpoint.Secret != "" {
		t.payload.Signature = sign(dataBytes, t.endpoint.Secret)
	}

	body, err := json.Marshal(t.payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", t.payload.Signature)
	req.Header.Set("X-Webhook-Event", t.payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

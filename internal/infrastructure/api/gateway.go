package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/stream"
)

// MinuAPIGateway implements the PersistenceGateway interface against
// the hub REST API.
type MinuAPIGateway struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	retryPolicy *RetryPolicy
	breaker     *CircuitBreaker
	logger      ports.LoggingGateway
	stats       *APIStats
	mutex       sync.RWMutex
}

// APIStats tracks API usage statistics
type APIStats struct {
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	TotalDeleted       int64         `json:"total_deleted"`
	AverageLatency     time.Duration `json:"average_latency"`
	LastRequestTime    time.Time     `json:"last_request_time"`
	LastError          string        `json:"last_error,omitempty"`
	connectionStatus   ports.ConnectionStatus
}

// RetryPolicy defines retry behavior
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay"`
	Multiplier  float64       `json:"multiplier"`
}

// DefaultRetryPolicy returns a sensible default retry policy
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// CircuitBreaker implements circuit breaker pattern
type CircuitBreaker struct {
	maxFailures     int
	resetTimeout    time.Duration
	failureCount    int
	lastFailureTime time.Time
	state           CircuitBreakerState
	mutex           sync.RWMutex
}

// CircuitBreakerState represents the circuit breaker state
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// CanExecute returns true if the circuit breaker allows execution
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailureTime) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful execution
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failureCount = 0
	cb.state = StateClosed
}

// RecordFailure records a failed execution
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.failureCount >= cb.maxFailures {
		cb.state = StateOpen
	}
}

// NewMinuAPIGateway creates a new API gateway
func NewMinuAPIGateway(endpoint, apiKey string, logger ports.LoggingGateway) *MinuAPIGateway {
	return &MinuAPIGateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryPolicy: DefaultRetryPolicy(),
		breaker:     NewCircuitBreaker(5, 60*time.Second),
		logger:      logger,
		stats:       &APIStats{},
	}
}

// NewTestAPIGateway creates a new API gateway with test-friendly settings
func NewTestAPIGateway(endpoint, apiKey string, logger ports.LoggingGateway) *MinuAPIGateway {
	return &MinuAPIGateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		retryPolicy: &RetryPolicy{
			MaxAttempts: 2,
			BaseDelay:   10 * time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
			Multiplier:  2.0,
		},
		breaker: NewCircuitBreaker(3, 5*time.Second),
		logger:  logger,
		stats:   &APIStats{},
	}
}

// UpdateEndpoint safely updates the API endpoint at runtime
func (g *MinuAPIGateway) UpdateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.logger.Log(ports.LogLevelInfo, "Updating API endpoint", map[string]interface{}{
		"old_endpoint": g.endpoint,
		"new_endpoint": endpoint,
	})

	g.endpoint = endpoint
	g.stats.connectionStatus = ports.ConnectionStatus{}

	return nil
}

// getEndpoint safely retrieves the current endpoint
func (g *MinuAPIGateway) getEndpoint() string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.endpoint
}

// DeleteIssues deletes the given issues server-side. The call is
// all-or-nothing for its id list; callers own the cross-kind
// aggregation.
func (g *MinuAPIGateway) DeleteIssues(ctx context.Context, ids []stream.ItemID) error {
	if len(ids) == 0 {
		return fmt.Errorf("cannot delete empty issue list")
	}

	g.logger.Log(ports.LogLevelInfo, "Deleting issues", map[string]interface{}{
		"count": len(ids),
	})

	return g.executeWithRetry(ctx, func() error {
		return g.sendDeleteRequest(ctx, "/api/issues/delete", ids)
	})
}

// DeleteEvents deletes the given events server-side
func (g *MinuAPIGateway) DeleteEvents(ctx context.Context, ids []stream.ItemID) error {
	if len(ids) == 0 {
		return fmt.Errorf("cannot delete empty event list")
	}

	g.logger.Log(ports.LogLevelInfo, "Deleting events", map[string]interface{}{
		"count": len(ids),
	})

	return g.executeWithRetry(ctx, func() error {
		return g.sendDeleteRequest(ctx, "/api/events/delete", ids)
	})
}

// TestConnection tests the API connection and authentication
func (g *MinuAPIGateway) TestConnection(ctx context.Context) error {
	endpoint := g.getEndpoint()
	g.logger.Log(ports.LogLevelInfo, "Testing API connection", map[string]interface{}{
		"endpoint": endpoint,
	})

	start := time.Now()

	err := g.executeWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
		if err != nil {
			return fmt.Errorf("failed to create health request: %w", err)
		}

		req.Header.Set("X-Version", "1.0")
		g.logHTTPRequest(req, nil)

		requestStart := time.Now()
		resp, err := g.httpClient.Do(req)
		requestLatency := time.Since(requestStart)

		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = nil
		}
		g.logHTTPResponse(resp, body, requestLatency)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &apiError{status: resp.StatusCode, message: "health check failed"}
		}
		return nil
	})

	if err != nil {
		g.updateConnectionStatus(false, time.Since(start), err.Error())
		return err
	}

	if g.apiKey != "" {
		err = g.executeWithRetry(ctx, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/api/me", nil)
			if err != nil {
				return fmt.Errorf("failed to create auth request: %w", err)
			}

			g.setRequestHeaders(req)
			g.logHTTPRequest(req, nil)

			requestStart := time.Now()
			resp, err := g.httpClient.Do(req)
			requestLatency := time.Since(requestStart)

			if err != nil {
				return fmt.Errorf("authentication test failed: %w", err)
			}
			defer resp.Body.Close()

			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				body = nil
			}
			g.logHTTPResponse(resp, body, requestLatency)

			if resp.StatusCode == http.StatusUnauthorized {
				return &apiError{status: resp.StatusCode, message: "API key authentication failed"}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return &apiError{status: resp.StatusCode, message: "authentication test failed"}
			}
			return nil
		})

		if err != nil {
			g.updateConnectionStatus(false, time.Since(start), err.Error())
			return err
		}
	}

	latency := time.Since(start)
	g.updateConnectionStatus(true, latency, "")
	g.logger.Log(ports.LogLevelInfo, "API connection test successful", map[string]interface{}{
		"latency_ms": latency.Milliseconds(),
	})

	return nil
}

// GetConnectionStatus returns the current connection status
func (g *MinuAPIGateway) GetConnectionStatus() ports.ConnectionStatus {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.stats.connectionStatus
}

// ValidateAPIKey validates the provided API key against the live API
func (g *MinuAPIGateway) ValidateAPIKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	g.mutex.Lock()
	originalKey := g.apiKey
	g.apiKey = apiKey
	g.mutex.Unlock()

	err := g.TestConnection(ctx)

	g.mutex.Lock()
	g.apiKey = originalKey
	g.mutex.Unlock()

	return err
}

// Stats returns a copy of the usage statistics
func (g *MinuAPIGateway) Stats() APIStats {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return *g.stats
}

// executeWithRetry executes a function with retry logic and circuit breaker
func (g *MinuAPIGateway) executeWithRetry(ctx context.Context, fn func() error) error {
	if !g.breaker.CanExecute() {
		return fmt.Errorf("circuit breaker is open")
	}

	var lastErr error
	for attempt := 0; attempt < g.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.calculateDelay(attempt)
			g.logger.Log(ports.LogLevelDebug, "Retrying request", map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		g.recordAttempt()

		err := fn()
		if err == nil {
			g.breaker.RecordSuccess()
			g.recordSuccess(0)
			return nil
		}

		lastErr = err
		g.breaker.RecordFailure()
		g.recordFailure(err.Error())

		if !g.shouldRetry(err) {
			break
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", g.retryPolicy.MaxAttempts, lastErr)
}

// sendDeleteRequest posts an id list to one of the delete endpoints
func (g *MinuAPIGateway) sendDeleteRequest(ctx context.Context, path string, ids []stream.ItemID) error {
	dto := DeleteRequestDto{IDs: make([]string, len(ids))}
	for i, id := range ids {
		dto.IDs[i] = id.Value()
	}

	jsonData, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("failed to marshal delete request: %w", err)
	}

	endpoint := g.getEndpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	g.setRequestHeaders(req)
	g.logHTTPRequest(req, jsonData)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	g.logHTTPResponse(resp, body, latency)

	if resp.StatusCode == http.StatusUnauthorized {
		return &apiError{status: resp.StatusCode, message: "authentication failed - check your API key"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{
			status:  resp.StatusCode,
			message: fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	g.recordDeleted(int64(len(ids)))
	g.updateLatency(latency)

	g.logger.Log(ports.LogLevelInfo, "Delete request succeeded", map[string]interface{}{
		"path":       path,
		"count":      len(ids),
		"latency_ms": latency.Milliseconds(),
	})

	return nil
}

// setRequestHeaders sets common request headers
func (g *MinuAPIGateway) setRequestHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "minu-hub/1.0")
	req.Header.Set("X-Version", "1.0")

	g.mutex.RLock()
	apiKey := g.apiKey
	g.mutex.RUnlock()

	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// isDebugEnabled checks if debug logging is enabled
func (g *MinuAPIGateway) isDebugEnabled() bool {
	if g.logger != nil && g.logger.GetLogLevel() == ports.LogLevelDebug {
		return true
	}
	return os.Getenv("HUB_DEBUG") == "true"
}

// logHTTPRequest logs HTTP request details for debugging
func (g *MinuAPIGateway) logHTTPRequest(req *http.Request, body []byte) {
	if !g.isDebugEnabled() {
		return
	}

	bodyPreview := string(body)
	if len(bodyPreview) > 1000 {
		bodyPreview = bodyPreview[:1000] + "... (truncated)"
	}

	g.logger.Log(ports.LogLevelDebug, "HTTP Request", map[string]interface{}{
		"method":       req.Method,
		"url":          req.URL.String(),
		"body_size":    len(body),
		"body_preview": bodyPreview,
	})
}

// logHTTPResponse logs HTTP response details for debugging
func (g *MinuAPIGateway) logHTTPResponse(resp *http.Response, body []byte, latency time.Duration) {
	if !g.isDebugEnabled() {
		return
	}

	bodyPreview := string(body)
	if len(bodyPreview) > 1000 {
		bodyPreview = bodyPreview[:1000] + "... (truncated)"
	}

	g.logger.Log(ports.LogLevelDebug, "HTTP Response", map[string]interface{}{
		"status_code":  resp.StatusCode,
		"status":       resp.Status,
		"body_size":    len(body),
		"body_preview": bodyPreview,
		"latency_ms":   latency.Milliseconds(),
	})
}

// calculateDelay calculates the delay for retry attempts
func (g *MinuAPIGateway) calculateDelay(attempt int) time.Duration {
	delay := time.Duration(float64(g.retryPolicy.BaseDelay) *
		float64(attempt) * g.retryPolicy.Multiplier)

	if delay > g.retryPolicy.MaxDelay {
		delay = g.retryPolicy.MaxDelay
	}

	return delay
}

// shouldRetry determines if an error should trigger a retry. Client
// errors are final; network failures, timeouts and server errors are
// worth another attempt.
func (g *MinuAPIGateway) shouldRetry(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.status == http.StatusRequestTimeout || apiErr.status == http.StatusTooManyRequests {
			return true
		}
		return apiErr.status >= 500
	}
	return true
}

func (g *MinuAPIGateway) recordAttempt() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.stats.TotalRequests++
	g.stats.LastRequestTime = time.Now()
}

func (g *MinuAPIGateway) recordSuccess(deleted int64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.stats.SuccessfulRequests++
	g.stats.TotalDeleted += deleted
	g.stats.LastError = ""
}

func (g *MinuAPIGateway) recordFailure(errorMsg string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.stats.FailedRequests++
	g.stats.LastError = errorMsg
}

func (g *MinuAPIGateway) recordDeleted(deleted int64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.stats.TotalDeleted += deleted
}

// updateLatency updates average latency
func (g *MinuAPIGateway) updateLatency(latency time.Duration) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.stats.AverageLatency == 0 {
		g.stats.AverageLatency = latency
	} else {
		// Simple moving average
		g.stats.AverageLatency = (g.stats.AverageLatency + latency) / 2
	}
}

// updateConnectionStatus updates the connection status
func (g *MinuAPIGateway) updateConnectionStatus(connected bool, latency time.Duration, errorMsg string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.stats.connectionStatus.IsConnected = connected
	g.stats.connectionStatus.Latency = latency
	g.stats.connectionStatus.LastError = errorMsg

	if connected {
		g.stats.connectionStatus.LastConnected = time.Now()
		g.stats.connectionStatus.RetryCount = 0
	} else {
		g.stats.connectionStatus.RetryCount++
	}
}

// apiError is an HTTP-level failure carrying the response status
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

// DeleteRequestDto is the request body for the bulk delete endpoints
type DeleteRequestDto struct {
	IDs []string `json:"ids"`
}

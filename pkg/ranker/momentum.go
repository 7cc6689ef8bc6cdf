package ranker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrMomentumUnavailable is returned when the momentum service throttles or can't be reached
var ErrMomentumUnavailable = errors.New("momentum unavailable")

// HTTPMomentum gets keyword momentum from a JSON service.
// GET {endpoint}?keywords=a,b answers {"a": {"current": 80, "average": 50}}, the signal is
// the relative growth of current interest over the average clamped to [0,1].
type HTTPMomentum struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

type interest struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
}

// NewHTTPMomentum makes a momentum client limited to rps requests per second, unlimited if rps <= 0
func NewHTTPMomentum(endpoint string, timeout time.Duration, rps float64) *HTTPMomentum {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPMomentum{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Signals returns the momentum of every keyword known to the service, unknown keywords are omitted
func (m *HTTPMomentum) Signals(ctx context.Context, keywords []string) (map[string]float64, error) {
	res := map[string]float64{}
	if len(keywords) == 0 {
		return res, nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMomentumUnavailable, err)
	}

	u, err := url.Parse(m.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse momentum endpoint: %w", err)
	}
	q := u.Query()
	q.Set("keywords", strings.Join(keywords, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create momentum request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMomentumUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: throttled", ErrMomentumUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("momentum service status %d", resp.StatusCode)
	}

	var body map[string]interest
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode momentum response: %w", err)
	}
	for k, v := range body {
		res[strings.ToLower(k)] = v.signal()
	}
	return res, nil
}

func (i interest) signal() float64 {
	if i.Average <= 0 {
		if i.Current > 0 {
			return 1
		}
		return 0
	}
	return clamp01(i.Current/i.Average - 1)
}

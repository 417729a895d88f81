// Package recognition talks to the sketch-classification service. The
// round must be able to resolve even when the classifier is down, so
// every failure mode degrades into a synthesized fallback result rather
// than an error.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/pelltigre/sketchparty/words"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultTimeout = 3 * time.Second
	decoyCount     = 4
)

type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type Result struct {
	Predictions []Prediction `json:"predictions"`
	IsFallback  bool         `json:"isFallback"`
}

func (r Result) Top() (Prediction, bool) {
	if len(r.Predictions) == 0 {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}

// Classifier is what the game engine depends on. expected is the
// round's current word; it seeds the fallback when the service cannot
// answer.
type Classifier interface {
	Classify(ctx context.Context, imageData string, expected string) Result
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, imageData string, expected string) Result

func (f ClassifierFunc) Classify(ctx context.Context, imageData string, expected string) Result {
	return f(ctx, imageData, expected)
}

// Client calls the classification service over HTTP. One client serves
// every room, so the fallback's rng is guarded.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	pool    *words.Pool
	mu      sync.Mutex
	rng     *rand.Rand
}

func NewClient(url string, timeout time.Duration, pool *words.Pool, rng *rand.Rand) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     url,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		pool:    pool,
		rng:     rng,
	}
}

// Wire shapes of the service.

type classifyRequest struct {
	ImageData string `json:"image_data"`
}

type classifyResponse struct {
	Success     bool `json:"success"`
	Predictions struct {
		TopPredictions []struct {
			Class      string  `json:"class"`
			Confidence float64 `json:"confidence"`
		} `json:"top_predictions"`
		InferenceTime float64 `json:"inference_time"`
	} `json:"predictions"`
}

// Classify sends the sketch to the service and returns its ranked
// labels. Timeouts, transport failures, non-2xx statuses and malformed
// bodies all come back as a fallback result.
func (c *Client) Classify(ctx context.Context, imageData string, expected string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{ImageData: imageData})
	if err != nil {
		log.Printf("[recognition] could not marshal request: %s", err)
		return c.Fallback(expected)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/recognize", bytes.NewReader(body))
	if err != nil {
		log.Printf("[recognition] could not build request: %s", err)
		return c.Fallback(expected)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[recognition] classify call failed: %s", err)
		return c.Fallback(expected)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[recognition] classify returned status %d", resp.StatusCode)
		return c.Fallback(expected)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("[recognition] could not decode response: %s", err)
		return c.Fallback(expected)
	}
	if !parsed.Success || len(parsed.Predictions.TopPredictions) == 0 {
		log.Printf("[recognition] classify answered without predictions")
		return c.Fallback(expected)
	}

	preds := make([]Prediction, 0, len(parsed.Predictions.TopPredictions))
	for _, p := range parsed.Predictions.TopPredictions {
		preds = append(preds, Prediction{Label: p.Class, Confidence: p.Confidence})
	}
	return Result{Predictions: preds}
}

// Fallback synthesizes a plausible ranked result whose top label is the
// expected word. Gameplay availability outranks judging fidelity here:
// a stalled classifier must never block a round from resolving.
func (c *Client) Fallback(expected string) Result {
	decoys := c.pool.Sample(decoyCount, expected)

	c.mu.Lock()
	top := 0.4 + 0.4*c.rng.Float64()
	rest := make([]float64, len(decoys))
	for i := range rest {
		rest[i] = c.rng.Float64()
	}
	c.mu.Unlock()
	// The decoys share whatever probability mass the top label left.
	if sum := floats.Sum(rest); sum > 0 {
		floats.Scale((1-top)/sum, rest)
	}
	// No decoy may outrank the pinned top label. Squeezing the shares
	// toward their mean keeps the total intact while capping the
	// largest one below top.
	if len(rest) > 0 {
		if max := floats.Max(rest); max >= top {
			mean := (1 - top) / float64(len(rest))
			squeeze := (0.9*top - mean) / (max - mean)
			for i := range rest {
				rest[i] = mean + squeeze*(rest[i]-mean)
			}
		}
	}

	preds := make([]Prediction, 0, 1+len(decoys))
	preds = append(preds, Prediction{Label: expected, Confidence: top})
	for i, d := range decoys {
		preds = append(preds, Prediction{Label: d, Confidence: rest[i]})
	}
	for i := 1; i < len(preds); i++ {
		for j := i; j > 1 && preds[j].Confidence > preds[j-1].Confidence; j-- {
			preds[j], preds[j-1] = preds[j-1], preds[j]
		}
	}
	return Result{Predictions: preds, IsFallback: true}
}

// Healthy pings the service, used for startup logging only.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier health returned status %d", resp.StatusCode)
	}
	return nil
}

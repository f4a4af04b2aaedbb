package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deepscout/deepscout/internal/errors"
)

// httpTimeout bounds one judgment round trip.
const httpTimeout = 60 * time.Second

// HTTPDelegate sends prompts to a remote judgment endpoint. The endpoint
// receives {"prompt": "..."} and answers {"response": "..."}; the response
// text goes through Extract like any other raw model output.
type HTTPDelegate struct {
	url    string
	apiKey string
	client *http.Client
}

var _ Delegate = (*HTTPDelegate)(nil)

// NewHTTPDelegate creates an HTTPDelegate for the given endpoint.
func NewHTTPDelegate(url, apiKey string) *HTTPDelegate {
	return &HTTPDelegate{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: httpTimeout},
	}
}

// Judge posts the prompt and extracts a structure from the response text.
func (d *HTTPDelegate) Judge(ctx context.Context, prompt string) (map[string]any, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, errors.Wrapf(err, "encode judgment request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "build judgment request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "judgment request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judgment endpoint returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "read judgment response")
	}

	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Response == "" {
		// Some endpoints answer with the structure directly.
		return Extract(string(raw))
	}
	return Extract(envelope.Response)
}

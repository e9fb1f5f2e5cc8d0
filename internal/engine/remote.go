package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/fluxgate/fluxgate/internal/model"
)

// Remote speaks the engined HTTP protocol. The protocol is stateless: the
// model document travels with every compute request, so knockouts applied by
// the caller are visible to the engine without any session handling.
type Remote struct {
	BaseURL string
	HTTP    *http.Client
}

func NewRemote(baseURL string) *Remote {
	return &Remote{
		BaseURL: baseURL,
		HTTP: &http.Client{
			// Genome-scale solves can be slow; this guards the transport,
			// not the computation.
			Timeout: 10 * time.Minute,
		},
	}
}

type loadRequest struct {
	ModelID string `json:"model_id"`
	Path    string `json:"model_path,omitempty"`
}

type optimizeRequest struct {
	Model *model.Model `json:"model"`
}

type fvaRequest struct {
	Model       *model.Model `json:"model"`
	ReactionIDs []string     `json:"reaction_ids,omitempty"`
}

type remoteError struct {
	Error string `json:"error"`
}

func (c *Remote) Load(ctx context.Context, src Source) (*model.Model, error) {
	var out model.Model
	err := c.post(ctx, "/v1/load", loadRequest{ModelID: src.ModelID, Path: src.Path}, &out)
	if err != nil {
		return nil, err
	}
	if verr := out.Validate(); verr != nil {
		return nil, fmt.Errorf("engine returned invalid model: %w", verr)
	}
	return &out, nil
}

func (c *Remote) Optimize(ctx context.Context, m *model.Model) (*Solution, error) {
	var out Solution
	if err := c.post(ctx, "/v1/optimize", optimizeRequest{Model: m}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Remote) FluxVariability(ctx context.Context, m *model.Model, reactionIDs []string) (map[string]FluxRange, error) {
	var out map[string]FluxRange
	if err := c.post(ctx, "/v1/fva", fvaRequest{Model: m, ReactionIDs: reactionIDs}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Remote) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		var re remoteError
		_ = json.NewDecoder(res.Body).Decode(&re)
		msg := re.Error
		if msg == "" {
			msg = fmt.Sprintf("engine %s status=%d", path, res.StatusCode)
		}
		// 404 from the engine means a missing model file or unknown id;
		// keep that classifiable for the dispatcher.
		if res.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", msg, fs.ErrNotExist)
		}
		return fmt.Errorf("engine %s: %s", path, msg)
	}

	return json.NewDecoder(res.Body).Decode(out)
}

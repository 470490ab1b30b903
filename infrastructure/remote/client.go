package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

// Client talks to the remote overwrite store. The server keeps no conflict
// state: a save replaces the whole graph for a location, and a fetch returns
// the location detail with its notes and graph snapshot.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// detailResponse is the GET payload for a location
type detailResponse struct {
	Location graph.Location `json:"location"`
	Notes    []graph.Note   `json:"notes"`
	Graph    graph.Snapshot `json:"graph"`
}

// saveResponse is the POST payload returned by the save endpoint
type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewClient creates a client against the given base URL
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// FetchLocation retrieves the location detail with its graph snapshot.
// Failures are transient: the poll loop swallows them and retries on its
// next tick.
func (c *Client) FetchLocation(ctx context.Context, locationID int64) (graph.Location, []graph.Note, graph.Snapshot, error) {
	url := fmt.Sprintf("%s/api/locations/%d", c.baseURL, locationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return graph.Location{}, nil, graph.Snapshot{}, errors.Wrap(err, "build fetch request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return graph.Location{}, nil, graph.Snapshot{}, errors.NewTransientError("fetch graph", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return graph.Location{}, nil, graph.Snapshot{}, errors.NewNotFoundError(fmt.Sprintf("location %d", locationID))
	}
	if resp.StatusCode != http.StatusOK {
		return graph.Location{}, nil, graph.Snapshot{}, errors.NewTransientError("fetch graph",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var detail detailResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return graph.Location{}, nil, graph.Snapshot{}, errors.NewTransientError("decode graph", err)
	}

	c.logger.Debug("location fetched",
		zap.Int64("location", locationID),
		zap.Int("nodes", len(detail.Graph.Nodes)),
		zap.Int("edges", len(detail.Graph.Edges)),
	)
	return detail.Location, detail.Notes, detail.Graph, nil
}

// SaveGraph overwrites the remote graph for a location. The snapshot must
// already exclude the root node. Any non-2xx response is a save failure.
func (c *Client) SaveGraph(ctx context.Context, locationID int64, snap graph.Snapshot) error {
	url := fmt.Sprintf("%s/api/locations/%d/graph", c.baseURL, locationID)

	if snap.Nodes == nil {
		snap.Nodes = []graph.Node{}
	}
	if snap.Edges == nil {
		snap.Edges = []graph.Edge{}
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build save request")
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewSaveFailedError("save graph", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body)
		return errors.NewSaveFailedError(
			fmt.Sprintf("save rejected with status %d: %s", resp.StatusCode, msg), nil,
		).WithDetails(map[string]interface{}{"requestID": requestID})
	}

	c.logger.Debug("graph saved",
		zap.Int64("location", locationID),
		zap.String("requestID", requestID),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
	)
	return nil
}

func readErrorMessage(r io.Reader) string {
	var sr saveResponse
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&sr); err == nil && sr.Error != "" {
		return sr.Error
	}
	return "no error detail"
}

package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Upstream request-size limits. wbgetentities accepts at most 50 IDs per
// call; the query service starts to reject VALUES clauses well above 100
// literals.
const (
	idBatchLimit    = 50
	labelBatchLimit = 100
)

const (
	defaultAPIURL    = "https://www.wikidata.org/w/api.php"
	defaultSPARQLURL = "https://query.wikidata.org/sparql"
)

// Client talks to the two Wikidata surfaces: the document API for entity
// records by ID and the SPARQL endpoint for entities by label. Inputs are
// chunked into bounded batches; a failed batch is logged and contributes
// zero results instead of aborting the remaining batches.
type Client struct {
	http        *http.Client
	apiURL      string
	sparqlURL   string
	lang        string
	maxParallel int
}

// NewClientParams configures a Client. Zero values fall back to the public
// Wikidata endpoints, English, a 30s timeout and sequential batches.
type NewClientParams struct {
	APIURL      string
	SPARQLURL   string
	Language    string
	Timeout     time.Duration
	MaxParallel int
	HTTPClient  *http.Client
}

func NewClient(params NewClientParams) *Client {
	c := &Client{
		http:        params.HTTPClient,
		apiURL:      params.APIURL,
		sparqlURL:   params.SPARQLURL,
		lang:        params.Language,
		maxParallel: params.MaxParallel,
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	if c.sparqlURL == "" {
		c.sparqlURL = defaultSPARQLURL
	}
	if c.lang == "" {
		c.lang = "en"
	}
	if c.maxParallel <= 0 {
		c.maxParallel = 1
	}
	if c.http == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

// Language returns the language code entity labels are requested in.
func (c *Client) Language() string {
	return c.lang
}

// FetchEntitiesByID retrieves raw entity records for the given IDs in
// batches. IDs the upstream does not know are simply absent from the
// result map.
func (c *Client) FetchEntitiesByID(ctx context.Context, ids []common.EntityID) (map[common.EntityID]RawEntity, error) {
	chunks := chunkIDs(ids, idBatchLimit)
	partial := make([]map[common.EntityID]RawEntity, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxParallel)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := c.fetchEntityBatch(ctx, chunk)
			if err != nil {
				logger.Warn("Entity batch failed", "size", len(chunk), "err", err)
				return nil
			}
			partial[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[common.EntityID]RawEntity, len(ids))
	for _, res := range partial {
		for id, e := range res {
			merged[id] = e
		}
	}
	return merged, nil
}

func (c *Client) fetchEntityBatch(ctx context.Context, ids []common.EntityID) (map[common.EntityID]RawEntity, error) {
	joined := make([]string, len(ids))
	for i, id := range ids {
		joined[i] = string(id)
	}

	q := url.Values{}
	q.Set("action", "wbgetentities")
	q.Set("format", "json")
	q.Set("ids", strings.Join(joined, "|"))
	q.Set("languages", c.lang)
	q.Set("props", "labels|descriptions|claims")

	body, err := c.get(ctx, c.apiURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Entities map[string]json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding wbgetentities response: %w", err)
	}

	out := make(map[common.EntityID]RawEntity, len(payload.Entities))
	for id, raw := range payload.Entities {
		var e RawEntity
		if err := json.Unmarshal(raw, &e); err != nil {
			logger.Warn("Skipping malformed entity record", "id", id, "err", err)
			continue
		}
		if e.ID == "" {
			// Missing entities come back as {"id": ..., "missing": ""}
			// without a real record.
			continue
		}
		out[common.EntityID(e.ID)] = e
	}
	return out, nil
}

// FetchEntitiesByLabel resolves labels to candidate entities through the
// SPARQL endpoint and regroups the flat bindings by queried label. Labels
// must already be normalized; binding labels are matched back
// case-insensitively. Labels the endpoint answered are always present in
// the result, with an empty match map when nothing matched. Labels of a
// failed batch are absent entirely: a transport error must surface as a
// miss the next call retries, never as a cacheable negative match.
func (c *Client) FetchEntitiesByLabel(ctx context.Context, labels []string) (map[string]common.LabelResult, error) {
	chunks := chunkStrings(labels, labelBatchLimit)
	partial := make([][]LabelBinding, len(chunks))
	answered := make([]bool, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxParallel)
	for i, chunk := range chunks {
		g.Go(func() error {
			bindings, err := c.queryLabelBatch(ctx, chunk)
			if err != nil {
				logger.Warn("Label batch failed", "size", len(chunk), "err", err)
				return nil
			}
			partial[i] = bindings
			answered[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var queried []string
	var bindings []LabelBinding
	for i, p := range partial {
		if !answered[i] {
			continue
		}
		queried = append(queried, chunks[i]...)
		bindings = append(bindings, p...)
	}
	return GroupBindings(queried, bindings), nil
}

func (c *Client) queryLabelBatch(ctx context.Context, labels []string) ([]LabelBinding, error) {
	q := url.Values{}
	q.Set("query", buildLabelQuery(labels, c.lang))
	q.Set("format", "json")

	body, err := c.get(ctx, c.sparqlURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding sparql response: %w", err)
	}
	return resp.labelBindings(), nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// GroupBindings regroups flat SPARQL bindings under the queried labels
// (case-insensitive), deduplicating instance-of types per candidate and
// preserving the order candidates were first seen in. Labels without any
// binding get an entry with an empty match map so negative results can be
// cached too.
func GroupBindings(labels []string, bindings []LabelBinding) map[string]common.LabelResult {
	byFold := make(map[string]string, len(labels))
	results := make(map[string]common.LabelResult, len(labels))
	for _, l := range labels {
		byFold[strings.ToLower(l)] = l
		results[l] = common.LabelResult{
			Label:   l,
			Matches: map[common.EntityID]common.LabelMatch{},
		}
	}

	for _, b := range bindings {
		label, ok := byFold[strings.ToLower(b.MatchedLabel)]
		if !ok {
			continue
		}
		res := results[label]
		id := common.EntityID(b.EntityID)
		match, seen := res.Matches[id]
		if !seen {
			match = common.LabelMatch{Label: b.DisplayLabel}
			res.Order = append(res.Order, id)
		}
		if b.InstanceType != "" && !containsString(match.InstanceTypes, b.InstanceType) {
			match.InstanceTypes = append(match.InstanceTypes, b.InstanceType)
		}
		res.Matches[id] = match
		results[label] = res
	}
	return results
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func chunkIDs(ids []common.EntityID, size int) [][]common.EntityID {
	var chunks [][]common.EntityID
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/weft-labs/weft/backend/pkg/cache"
	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/resolve"
	"github.com/weft-labs/weft/backend/pkg/store/memory"
	"github.com/weft-labs/weft/backend/pkg/wikidata"
)

type stubClient struct {
	entities map[common.EntityID]wikidata.RawEntity
}

func (c *stubClient) FetchEntitiesByID(_ context.Context, ids []common.EntityID) (map[common.EntityID]wikidata.RawEntity, error) {
	out := make(map[common.EntityID]wikidata.RawEntity, len(ids))
	for _, id := range ids {
		if e, ok := c.entities[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (c *stubClient) FetchEntitiesByLabel(context.Context, []string) (map[string]common.LabelResult, error) {
	return nil, nil
}

func (c *stubClient) Language() string { return "en" }

func TestProcessRefreshMessage_WarmsClaimCache(t *testing.T) {
	var entity wikidata.RawEntity
	doc := `{
		"id": "Q90",
		"labels": {"en": {"language": "en", "value": "Paris"}},
		"claims": {"P17": [{"mainsnak": {"snaktype": "value", "property": "P17", "datavalue": {"type": "string", "value": "France"}}, "rank": "normal"}]}
	}`
	if err := json.Unmarshal([]byte(doc), &entity); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	cacheSvc := cache.NewService(memory.NewCacheMemStorage())
	svc := resolve.NewService(&stubClient{entities: map[common.EntityID]wikidata.RawEntity{"Q90": entity}}, cacheSvc)

	msg, _ := json.Marshal(RefreshMessage{CorrelationID: "job-1", EntityIDs: []common.EntityID{"Q90"}})
	if err := ProcessRefreshMessage(t.Context(), svc, nil, string(msg)); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	fresh, stale, err := cacheSvc.Claims.GetFresh(t.Context(), []common.EntityID{"Q90"})
	if err != nil {
		t.Fatalf("get fresh failed: %v", err)
	}
	if len(stale) != 0 || len(fresh["Q90"]) != 1 {
		t.Fatalf("expected warmed claim cache, fresh=%v stale=%v", fresh, stale)
	}
}

func TestProcessRefreshMessage_RejectsMalformedPayload(t *testing.T) {
	cacheSvc := cache.NewService(memory.NewCacheMemStorage())
	svc := resolve.NewService(&stubClient{}, cacheSvc)

	if err := ProcessRefreshMessage(t.Context(), svc, nil, "{not json"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestProcessRefreshMessage_EmptyJobIsNoop(t *testing.T) {
	cacheSvc := cache.NewService(memory.NewCacheMemStorage())
	svc := resolve.NewService(&stubClient{}, cacheSvc)

	msg, _ := json.Marshal(RefreshMessage{CorrelationID: "job-2"})
	if err := ProcessRefreshMessage(t.Context(), svc, nil, string(msg)); err != nil {
		t.Fatalf("empty job must not fail: %v", err)
	}
}

package wikidata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/weft-labs/weft/backend/pkg/common"
)

func entityIDs(n int) []common.EntityID {
	ids := make([]common.EntityID, n)
	for i := range ids {
		ids[i] = common.EntityID(fmt.Sprintf("Q%d", i+1))
	}
	return ids
}

func TestFetchEntitiesByID_ChunksRequests(t *testing.T) {
	var mu sync.Mutex
	var batchSizes []int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), "|")
		mu.Lock()
		batchSizes = append(batchSizes, len(ids))
		mu.Unlock()

		entities := make(map[string]any, len(ids))
		for _, id := range ids {
			entities[id] = map[string]any{"id": id}
		}
		json.NewEncoder(w).Encode(map[string]any{"entities": entities})
	}))
	defer srv.Close()

	client := NewClient(NewClientParams{APIURL: srv.URL})
	got, err := client.FetchEntitiesByID(t.Context(), entityIDs(120))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 120 {
		t.Fatalf("expected 120 entities, got %d", len(got))
	}
	if len(batchSizes) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batchSizes))
	}
	for _, size := range batchSizes {
		if size > 50 {
			t.Fatalf("batch exceeds id limit: %d", size)
		}
	}
}

func TestFetchEntitiesByID_MissingIDsAbsent(t *testing.T) {
	// Q1 exists, Q2 is reported the way the upstream marks missing ids.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"entities": {"Q1": {"id": "Q1"}, "Q2": {"missing": ""}}}`)
	}))
	defer srv.Close()

	client := NewClient(NewClientParams{APIURL: srv.URL})
	got, err := client.FetchEntitiesByID(t.Context(), []common.EntityID{"Q1", "Q2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got["Q1"]; !ok {
		t.Fatal("expected Q1 in result")
	}
	if _, ok := got["Q2"]; ok {
		t.Fatal("missing id must be absent from result")
	}
}

func TestFetchEntitiesByID_FailedBatchDoesNotAbortOthers(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		fail := calls == 1
		mu.Unlock()

		if fail {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		ids := strings.Split(r.URL.Query().Get("ids"), "|")
		entities := make(map[string]any, len(ids))
		for _, id := range ids {
			entities[id] = map[string]any{"id": id}
		}
		json.NewEncoder(w).Encode(map[string]any{"entities": entities})
	}))
	defer srv.Close()

	client := NewClient(NewClientParams{APIURL: srv.URL})
	got, err := client.FetchEntitiesByID(t.Context(), entityIDs(100))
	if err != nil {
		t.Fatalf("a failed batch must not surface as an error: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected the surviving batch's 50 entities, got %d", len(got))
	}
}

func TestFetchEntitiesByLabel_GroupsBindings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": {"bindings": [
			{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q90"}, "matched": {"value": "paris"}, "itemLabel": {"value": "Paris"}, "typeLabel": {"value": "city"}},
			{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q90"}, "matched": {"value": "paris"}, "itemLabel": {"value": "Paris"}, "typeLabel": {"value": "commune of France"}},
			{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q167646"}, "matched": {"value": "Paris"}, "itemLabel": {"value": "Paris"}, "typeLabel": {"value": "city"}}
		]}}`)
	}))
	defer srv.Close()

	client := NewClient(NewClientParams{SPARQLURL: srv.URL})
	got, err := client.FetchEntitiesByLabel(t.Context(), []string{"Paris", "Atlantis"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paris, ok := got["Paris"]
	if !ok {
		t.Fatal("expected result for Paris")
	}
	if len(paris.Matches) != 2 {
		t.Fatalf("expected 2 candidates for Paris, got %d", len(paris.Matches))
	}
	if len(paris.Order) != 2 || paris.Order[0] != "Q90" {
		t.Fatalf("expected candidate order to start with Q90, got %v", paris.Order)
	}
	types := paris.Matches["Q90"].InstanceTypes
	if len(types) != 2 || types[0] != "city" || types[1] != "commune of France" {
		t.Fatalf("unexpected instance types for Q90: %v", types)
	}

	atlantis, ok := got["Atlantis"]
	if !ok {
		t.Fatal("a label with no match must still get a (negative) result entry")
	}
	if len(atlantis.Matches) != 0 {
		t.Fatalf("expected empty match map for Atlantis, got %v", atlantis.Matches)
	}
}

func TestFetchEntitiesByLabel_FailedBatchLeavesLabelsAbsent(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			http.Error(w, "endpoint overloaded", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"results": {"bindings": [
			{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q90"}, "matched": {"value": "paris"}, "itemLabel": {"value": "Paris"}, "typeLabel": {"value": "city"}}
		]}}`)
	}))
	defer srv.Close()

	client := NewClient(NewClientParams{SPARQLURL: srv.URL})

	// A transport failure must not produce entries: an empty match map
	// here would be cached as a negative result for the full TTL.
	got, err := client.FetchEntitiesByLabel(t.Context(), []string{"Paris"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("failed batch must leave its labels absent, got %v", got)
	}

	got, err = client.FetchEntitiesByLabel(t.Context(), []string{"Paris"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["Paris"].Matches) != 1 {
		t.Fatalf("expected a match once the endpoint recovered, got %v", got)
	}
}

func TestBuildLabelQuery_EscapesLiterals(t *testing.T) {
	q := buildLabelQuery([]string{`Dwayne "The Rock" Johnson`}, "en")
	if !strings.Contains(q, `"Dwayne \"The Rock\" Johnson"@en`) {
		t.Fatalf("quotes not escaped in query:\n%s", q)
	}
	if !strings.Contains(q, "VALUES ?matched") {
		t.Fatalf("missing VALUES clause:\n%s", q)
	}
}

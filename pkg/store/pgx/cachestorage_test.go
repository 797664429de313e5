package pgx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/weft-labs/weft/backend/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeConn records statement arguments and serves canned rows, enough to
// check the SQL paths without a live database.
type fakeConn struct {
	execArgs  [][]any
	queryArgs [][]any
	rows      *fakeRows
}

func (c *fakeConn) Exec(_ context.Context, _ string, arguments ...any) (pgconn.CommandTag, error) {
	c.execArgs = append(c.execArgs, arguments)
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) Query(_ context.Context, _ string, optionsAndArgs ...any) (pgx.Rows, error) {
	c.queryArgs = append(c.queryArgs, optionsAndArgs)
	if c.rows == nil {
		return &fakeRows{}, nil
	}
	return c.rows, nil
}

func (c *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not used")
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) {
	panic("not used")
}

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case *[]byte:
			*v = row[i].([]byte)
		case *time.Time:
			*v = row[i].(time.Time)
		}
	}
	return nil
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func TestLabelResults_SanitizedKeyIsSymmetric(t *testing.T) {
	// Labels come from arbitrary web tables; a key with a null byte or
	// invalid UTF-8 must be stored and looked up under the same value.
	raw := "Mot\x00rhead\xff"
	cachedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	conn := &fakeConn{}
	s := NewCacheDBStorage(conn)

	err := s.PutLabelResults(t.Context(), []common.LabelResult{{
		Label:    raw,
		Matches:  map[common.EntityID]common.LabelMatch{"Q42": {Label: "Motörhead"}},
		Order:    []common.EntityID{"Q42"},
		CachedAt: cachedAt,
	}})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	storedKey, ok := conn.execArgs[0][0].(string)
	if !ok {
		t.Fatalf("expected string key, got %T", conn.execArgs[0][0])
	}
	if strings.ContainsRune(storedKey, 0) {
		t.Fatal("stored key still contains a null byte")
	}

	conn.rows = &fakeRows{data: [][]any{
		{storedKey, conn.execArgs[0][1].([]byte), conn.execArgs[0][2].([]byte), cachedAt},
	}}

	got, err := s.GetLabelResults(t.Context(), []string{raw})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	queriedKeys := conn.queryArgs[0][0].([]string)
	if len(queriedKeys) != 1 || queriedKeys[0] != storedKey {
		t.Fatalf("lookup key %q differs from stored key %q", queriedKeys, storedKey)
	}

	r, ok := got[raw]
	if !ok {
		t.Fatalf("result must be keyed by the requested label, got %v", got)
	}
	if len(r.Matches) != 1 || r.Order[0] != "Q42" {
		t.Fatalf("round-tripped result mangled: %+v", r)
	}
	if r.Label != raw {
		t.Fatalf("expected caller's label back, got %q", r.Label)
	}
}

package graphdb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct {
	neo4j.DriverWithContext
	closed atomic.Bool
}

func (d *stubDriver) Close(context.Context) error {
	d.closed.Store(true)
	return nil
}

func TestRenderLabelsPrefixesMarkers(t *testing.T) {
	cypher := "MATCH (s:#Student {student_id: $id})-[:PERFORMED]->(a:#Activity) RETURN s"
	got := RenderLabels("mfx_", cypher)
	assert.Contains(t, got, "(s:mfx_Student {student_id: $id})")
	assert.Contains(t, got, "(a:mfx_Activity)")
	assert.Contains(t, got, "[:PERFORMED]")
	assert.Contains(t, got, "$id")

	assert.Equal(t, "MATCH (n:Lesson)", RenderLabels("", "MATCH (n:#Lesson)"))
}

func TestOpenWithoutURIReturnsOfflineClient(t *testing.T) {
	client, err := Open(context.Background(), Config{}, nil)
	require.Error(t, err)
	require.NotNil(t, client)
	assert.True(t, IsUnavailable(err))
	assert.False(t, client.Available())

	rows, err := client.Read(context.Background(), Query{Name: "q", Cypher: "RETURN 1"})
	assert.Nil(t, rows)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, client.WriteTx(context.Background(), "tx"), ErrUnavailable)
	assert.NoError(t, client.Close(context.Background()))
}

func TestOfflineClientRedialsAfterBackoff(t *testing.T) {
	var dials atomic.Int32
	driver := &stubDriver{}
	dialer := func(context.Context) (neo4j.DriverWithContext, error) {
		if dials.Add(1) == 1 {
			return nil, fmt.Errorf("%w: connection refused", ErrUnavailable)
		}
		return driver, nil
	}

	client, err := Open(context.Background(), Config{URI: "bolt://graph.invalid:7687"}, nil, withDialer(dialer))
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	client.mu.Lock()
	client.now = func() time.Time { return start }
	client.nextDial = start.Add(minRedialBackoff)
	client.mu.Unlock()

	assert.False(t, client.Available())
	assert.Equal(t, int32(1), dials.Load())

	client.mu.Lock()
	client.now = func() time.Time { return start.Add(minRedialBackoff) }
	client.mu.Unlock()
	assert.Eventually(t, client.Available, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), dials.Load())

	require.NoError(t, client.Close(context.Background()))
	assert.True(t, driver.closed.Load())
	assert.False(t, client.Available())
}

func TestRedialBackoffDoublesUpToCap(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := &Client{now: func() time.Time { return now }}
	var got []time.Duration
	for i := 0; i < 6; i++ {
		c.scheduleRedial()
		got = append(got, c.backoff)
	}
	assert.Equal(t, []time.Duration{
		5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, time.Minute, time.Minute,
	}, got)
	assert.Equal(t, now.Add(time.Minute), c.nextDial)
}

func TestStoreErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := error(&StoreError{Query: "activity.log", Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "activity.log")
	assert.False(t, IsUnavailable(err))
}

func TestRecordGetters(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.Local)
	r := Record{
		"name":  "Zhang",
		"count": int64(7),
		"avg":   2.5,
		"tags":  []any{"a", 1, "b"},
		"ts":    ts,
		"old":   "2024-03-01 08:30:00",
		"ok":    true,
	}
	assert.Equal(t, "Zhang", r.String("name"))
	assert.Equal(t, "", r.String("missing"))
	assert.Equal(t, 7, r.Int("count"))
	assert.Equal(t, 2.5, r.Float("avg"))
	assert.Equal(t, []string{"a", "b"}, r.Strings("tags"))
	assert.True(t, r.Time("ts").Equal(ts))
	assert.True(t, r.Time("old").Equal(ts))
	assert.True(t, r.Time("missing").IsZero())
	assert.True(t, r.Bool("ok"))
}

func TestRequiredIndexesAndMissing(t *testing.T) {
	specs := RequiredIndexes("mfx_")
	require.NotEmpty(t, specs)
	assert.Equal(t, "mfx_student_student_id", specs[0].Name)
	assert.Equal(t, "CREATE CONSTRAINT mfx_student_student_id IF NOT EXISTS FOR (n:mfx_Student) REQUIRE n.student_id IS UNIQUE",
		RenderLabels("mfx_", specs[0].createCypher()))

	live := []IndexInfo{{Name: "x", Labels: []string{"mfx_Student"}, Properties: []string{"student_id"}}}
	missing := MissingIndexes("mfx_", live)
	assert.Len(t, missing, len(specs)-1)
	for _, m := range missing {
		assert.False(t, m.Label == LabelStudent && m.Property == "student_id")
	}
}

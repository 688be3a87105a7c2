package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{"color": "red"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	assert.Equal(t, "red", doc.String("color"))
	assert.Equal(t, id, doc.ID())
	assert.NotNil(t, doc[FieldCreatedAt])
	assert.NotNil(t, doc[FieldUpdatedAt])
}

func TestMemoryStoreCreateHonorsProvidedID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{FieldID: "fixed", "color": "blue"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	doc, err := store.Get(ctx, "things", "fixed")
	require.NoError(t, err)
	assert.Equal(t, "blue", doc.String("color"))
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "things", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateMerges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{"color": "red", "size": "large"})
	require.NoError(t, err)

	err = store.Update(ctx, "things", id, Document{"color": "green"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	assert.Equal(t, "green", doc.String("color"))
	assert.Equal(t, "large", doc.String("size"))
}

func TestMemoryStoreUpdateDeletesFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{"color": "red", "size": "large"})
	require.NoError(t, err)

	err = store.Update(ctx, "things", id, Document{"size": DeleteField})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	_, present := doc["size"]
	assert.False(t, present)
	assert.Equal(t, "red", doc.String("color"))
}

func TestMemoryStoreUpdateNotFound(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), "things", "missing", Document{"color": "red"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFind(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "things", Document{"color": "red"})
	require.NoError(t, err)
	wantID, err := store.Create(ctx, "things", Document{"color": "blue"})
	require.NoError(t, err)

	doc, err := store.Find(ctx, "things", "color", "blue")
	require.NoError(t, err)
	assert.Equal(t, wantID, doc.ID())

	_, err = store.Find(ctx, "things", "color", "purple")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreQuery(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, color := range []string{"red", "red", "blue"} {
		_, err := store.Create(ctx, "things", Document{"color": color})
		require.NoError(t, err)
	}

	docs, err := store.Query(ctx, "things", Where("color", "red"))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	all, err := store.Query(ctx, "things")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{"color": "red"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "things", id))
	_, err = store.Get(ctx, "things", id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "things", id), ErrNotFound)
}

func TestMemoryStoreIsolatesReturnedDocuments(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{"tags": []string{"a", "b"}})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	doc["color"] = "mutated"
	doc["tags"].([]string)[0] = "mutated"

	fresh, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	_, present := fresh["color"]
	assert.False(t, present)
	assert.Equal(t, []string{"a", "b"}, fresh["tags"])
}

func TestMemoryStoreIsolatesByteSlices(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "things", Document{
		"payload": []byte(`{"ok":true}`),
		"raw":     json.RawMessage(`{"ok":true}`),
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	doc["payload"].([]byte)[0] = 'X'
	doc["raw"].(json.RawMessage)[0] = 'X'

	fresh, err := store.Get(ctx, "things", id)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), fresh["payload"])
	assert.Equal(t, json.RawMessage(`{"ok":true}`), fresh["raw"])
}

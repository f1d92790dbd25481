package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveAndGet(t *testing.T) {
	store := NewMemory()

	url, err := store.Save(context.Background(), "documents/abc_doc.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "memory://documents/abc_doc.pdf", url)

	data, ok := store.Get("documents/abc_doc.pdf")
	require.True(t, ok)
	require.Equal(t, []byte("%PDF"), data)
	require.Equal(t, 1, store.Len())
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemory()

	original := []byte("mutable")
	_, err := store.Save(context.Background(), "blob", original, "application/octet-stream")
	require.NoError(t, err)

	original[0] = 'X'
	data, ok := store.Get("blob")
	require.True(t, ok)
	require.Equal(t, []byte("mutable"), data)
}

func TestMemoryStoreOverwrites(t *testing.T) {
	store := NewMemory()

	_, err := store.Save(context.Background(), "blob", []byte("v1"), "")
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "blob", []byte("v2"), "")
	require.NoError(t, err)

	data, _ := store.Get("blob")
	require.Equal(t, []byte("v2"), data)
	require.Equal(t, 1, store.Len())
}

// Copyright 2025 Certen Protocol

package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatusAcceptsKnownValues(t *testing.T) {
	for _, s := range []string{"active", "deprecated", "draft"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		require.Equal(t, Status(s), got)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	_, err := ParseStatus("archived")
	require.Error(t, err)
}

func TestInMemoryStoreSaveAndGet(t *testing.T) {
	store := NewInMemoryStore()
	rec := &Record{
		Policy:     &PolicyV2{ID: "lksg.v1"},
		PolicyHash: "sha3-256:abc",
		Status:     StatusDraft,
	}
	require.NoError(t, store.Save(rec))

	got, err := store.Get("lksg.v1")
	require.NoError(t, err)
	require.Equal(t, "sha3-256:abc", got.PolicyHash)

	byHash, err := store.GetByHash("sha3-256:abc")
	require.NoError(t, err)
	require.Equal(t, "lksg.v1", byHash.Policy.ID)
}

func TestInMemoryStoreGetMissingReturnsErrNotFound(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreSetStatus(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Save(&Record{
		Policy:     &PolicyV2{ID: "p1"},
		PolicyHash: "h1",
		Status:     StatusDraft,
	}))
	require.NoError(t, store.SetStatus("p1", StatusActive))

	got, err := store.Get("p1")
	require.NoError(t, err)
	require.Equal(t, StatusActive, got.Status)

	byHash, err := store.GetByHash("h1")
	require.NoError(t, err)
	require.Equal(t, StatusActive, byHash.Status)
}

func TestInMemoryStoreSetStatusMissingErrors(t *testing.T) {
	store := NewInMemoryStore()
	err := store.SetStatus("missing", StatusActive)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreList(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Save(&Record{Policy: &PolicyV2{ID: "a"}, PolicyHash: "ha"}))
	require.NoError(t, store.Save(&Record{Policy: &PolicyV2{ID: "b"}, PolicyHash: "hb"}))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traffic.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.flushRows([]Row{{Timestamp: 1, SrcIP: "a", DstIP: "b", Protocol: "TCP", Length: 10}}, nil))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	rows, err := s2.QueryHistory(10)
	require.NoError(t, err)
	require.Len(t, rows, 1, "reopening must not alter existing contents")
}

func TestQueryHistoryClampsLimit(t *testing.T) {
	s := openTestStore(t)

	rows := make([]Row, 0, 1200)
	for i := 0; i < 1200; i++ {
		rows = append(rows, Row{Timestamp: int64(i), SrcIP: "a", DstIP: "b", Protocol: "TCP", Length: 1})
	}
	require.NoError(t, s.flushRows(rows, nil))

	got, err := s.QueryHistory(2000)
	require.NoError(t, err)
	require.Len(t, got, 1000, "limit above 1000 must clamp to 1000")

	got, err = s.QueryHistory(0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestQueryHistoryOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.flushRows([]Row{
		{Timestamp: 100, SrcIP: "a", DstIP: "b", Protocol: "TCP", Length: 1},
		{Timestamp: 300, SrcIP: "a", DstIP: "b", Protocol: "TCP", Length: 1},
		{Timestamp: 200, SrcIP: "a", DstIP: "b", Protocol: "TCP", Length: 1},
	}, nil))

	rows, err := s.QueryHistory(10)
	require.NoError(t, err)
	require.Equal(t, []int64{300, 200, 100}, []int64{rows[0].Timestamp, rows[1].Timestamp, rows[2].Timestamp})
}

func TestDeleteOlderThan(t *testing.T) {
	s := openTestStore(t)
	rows := make([]Row, 0, 100)
	for i := 0; i < 100; i++ {
		rows = append(rows, Row{Timestamp: int64(i), SrcIP: "a", DstIP: "b", Protocol: "TCP", Length: 1})
	}
	require.NoError(t, s.flushRows(rows, nil))

	deleted, err := s.DeleteOlderThan(1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(100), deleted)

	remaining, err := s.QueryHistory(10)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waypost.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	return s, path
}

func testTimestamp() string {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func TestCreateAndListAll(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	id1, err := s.Create(10.0, 20.0, testTimestamp(), "Home")
	require.NoError(t, err)
	id2, err := s.Create(10.001, 20.001, testTimestamp(), "Office")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Home", all[0].Name)
	assert.Equal(t, 10.0, all[0].Latitude)
	assert.Equal(t, "Office", all[1].Name)
}

func TestCreate_ZeroCoordinatesAreValid(t *testing.T) {
	// Zero is a legitimate coordinate; rejecting it via a truthiness check is
	// exactly the pitfall the range validation avoids.
	s, _ := openTestStore(t)
	defer s.Close()

	id, err := s.Create(0, 20.0, testTimestamp(), "Equator")
	require.NoError(t, err)
	assert.Positive(t, id)

	id, err = s.Create(10.0, 0, testTimestamp(), "Meridian")
	require.NoError(t, err)
	assert.Positive(t, id)

	id, err = s.Create(0, 0, testTimestamp(), "Null Island")
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestCreate_InvalidInput(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	cases := []struct {
		name      string
		lat, lon  float64
		timestamp string
		label     string
	}{
		{name: "empty name", lat: 10, lon: 20, timestamp: testTimestamp(), label: ""},
		{name: "blank name", lat: 10, lon: 20, timestamp: testTimestamp(), label: "   "},
		{name: "empty timestamp", lat: 10, lon: 20, timestamp: "", label: "Home"},
		{name: "latitude too large", lat: 91, lon: 20, timestamp: testTimestamp(), label: "Home"},
		{name: "longitude too small", lat: 10, lon: -181, timestamp: testTimestamp(), label: "Home"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(tc.lat, tc.lon, tc.timestamp, tc.label)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestDeleteByID(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	id, err := s.Create(10.0, 20.0, testTimestamp(), "Home")
	require.NoError(t, err)

	removed, err := s.DeleteByID(id)
	require.NoError(t, err)
	assert.True(t, removed)

	// Deleting a non-existent id is a no-op, never an error.
	removed, err = s.DeleteByID(id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestIDsAreNotReusedAfterDeletion(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	id1, err := s.Create(10.0, 20.0, testTimestamp(), "Home")
	require.NoError(t, err)

	removed, err := s.DeleteByID(id1)
	require.NoError(t, err)
	require.True(t, removed)

	id2, err := s.Create(11.0, 21.0, testTimestamp(), "Office")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}

func TestReopenPreservesRowsAtSameSchemaVersion(t *testing.T) {
	s, path := openTestStore(t)
	_, err := s.Create(10.0, 20.0, testTimestamp(), "Home")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()

	all, err := s2.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSchemaVersionMismatchDropsLocations(t *testing.T) {
	s, path := openTestStore(t)
	_, err := s.Create(10.0, 20.0, testTimestamp(), "Home")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Simulate a database written by a different schema version.
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE schema_info SET value = ? WHERE key = 'version'`, schemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()

	all, err := s2.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all, "migration is destructive on version mismatch")

	var stored int
	require.NoError(t, s2.db.Get(&stored, `SELECT value FROM schema_info WHERE key = 'version'`))
	assert.Equal(t, schemaVersion, stored)
}

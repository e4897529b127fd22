package incident

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	raws []RawRecord
	err  error
}

func (f *fakeSource) FetchRecords(context.Context) ([]RawRecord, error) {
	return f.raws, f.err
}

func (f *fakeSource) Name() string { return "fake" }

type fakeRepo struct {
	existing map[string]struct{}
	inserted []Record
	insErr   error
	delErr   error
	cleared  bool
}

func (f *fakeRepo) InsertBatch(_ context.Context, records []Record) error {
	if f.insErr != nil {
		return f.insErr
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeRepo) ExistingIDs(context.Context) (map[string]struct{}, error) {
	if f.existing == nil {
		return map[string]struct{}{}, nil
	}
	return f.existing, nil
}

func (f *fakeRepo) List(context.Context) ([]Record, error) { return f.inserted, nil }

func (f *fakeRepo) ListSinceYear(context.Context, int) ([]Record, error) { return f.inserted, nil }

func (f *fakeRepo) DeleteAll(context.Context) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.cleared = true
	f.existing = nil
	f.inserted = nil
	return nil
}

func newTestService(source Source, repo Repository) *Service {
	logger := zerolog.New(io.Discard)
	return NewService(ServiceConfig{
		Source:     source,
		Repository: repo,
		Normalizer: NewNormalizer(NormalizerConfig{Logger: logger}),
		Logger:     logger,
	})
}

func rawWithID(id string) RawRecord {
	raw := validRaw()
	raw["collision_id"] = id
	return raw
}

func TestServiceIngest(t *testing.T) {
	bad := rawWithID("3")
	bad["latitude"] = "0"

	source := &fakeSource{raws: []RawRecord{
		rawWithID("1"),
		rawWithID("2"),
		rawWithID("2"), // in-batch duplicate
		bad,
	}}
	repo := &fakeRepo{existing: map[string]struct{}{"1": {}}}

	result, err := newTestService(source, repo).Ingest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Fetched)
	assert.Equal(t, 1, result.Discarded)
	// In-batch dedupe happens before the duplicate count; only the
	// already-persisted "1" counts as a duplicate.
	assert.Equal(t, 1, result.Duplicate)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "2", repo.inserted[0].ID)
	assert.NotZero(t, result.StartedAt)
}

func TestServiceReingest(t *testing.T) {
	source := &fakeSource{raws: []RawRecord{rawWithID("1"), rawWithID("2")}}
	// "1" is already persisted; a full reload clears it and inserts both again.
	repo := &fakeRepo{existing: map[string]struct{}{"1": {}}}

	result, err := newTestService(source, repo).Reingest(context.Background())
	require.NoError(t, err)

	assert.True(t, repo.cleared)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 0, result.Duplicate)
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, repo.inserted, 2)
}

func TestServiceReingest_DeleteError(t *testing.T) {
	source := &fakeSource{raws: []RawRecord{rawWithID("1")}}
	repo := &fakeRepo{delErr: errors.New("db down")}

	_, err := newTestService(source, repo).Reingest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clearing incident store")
	assert.Empty(t, repo.inserted)
}

func TestServiceIngest_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("upstream down")}

	_, err := newTestService(source, &fakeRepo{}).Ingest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake")
}

func TestServiceIngest_InsertError(t *testing.T) {
	source := &fakeSource{raws: []RawRecord{rawWithID("1")}}
	repo := &fakeRepo{insErr: errors.New("db down")}

	_, err := newTestService(source, repo).Ingest(context.Background())
	assert.Error(t, err)
}

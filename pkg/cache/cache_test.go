package cache

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]*s3.PutObjectInput
	bodies  map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string]*s3.PutObjectInput),
		bodies:  make(map[string][]byte),
	}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := *in.Bucket + "/" + *in.Key
	obj, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(f.bodies[key])),
		ContentType: obj.ContentType,
		Metadata:    obj.Metadata,
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := *in.Bucket + "/" + *in.Key
	f.objects[key] = in
	f.bodies[key] = body
	return &s3.PutObjectOutput{}, nil
}

func sampleEntry() *Entry {
	return &Entry{
		Status:      200,
		ContentType: "text/html; charset=utf-8",
		Header:      http.Header{"X-Page": {"home"}, "Vary": {"Accept", "Cookie"}},
		Body:        []byte("<!DOCTYPE html><html><head></head><body>hi</body></html>"),
	}
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "GET /missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "GET /", sampleEntry()))
	got, err := store.Get(ctx, "GET /")
	require.NoError(t, err)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, "text/html; charset=utf-8", got.ContentType)
	assert.Equal(t, sampleEntry().Body, got.Body)
	assert.Equal(t, sampleEntry().Header, got.Header)
	assert.False(t, got.StoredAt.IsZero())

	next := sampleEntry()
	next.Status = 418
	next.Body = []byte("teapot")
	next.Header = nil
	require.NoError(t, store.Put(ctx, "GET /", next))
	got, err = store.Get(ctx, "GET /")
	require.NoError(t, err)
	assert.Equal(t, 418, got.Status)
	assert.Equal(t, []byte("teapot"), got.Body)
	assert.Empty(t, got.Header)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(0))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(context.Background(), "k", sampleEntry()))
	_, err := store.Get(context.Background(), "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore(0)
	e := sampleEntry()
	require.NoError(t, store.Put(context.Background(), "k", e))
	e.Status = 500
	e.Header.Set("X-Page", "changed")

	got, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, "home", got.Header.Get("X-Page"))

	got.Header.Set("X-Page", "mutated")
	again, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "home", again.Header.Get("X-Page"))
}

func TestS3Store(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "pages/")
	storeContract(t, store)

	assert.Len(t, client.objects, 1)
	obj := client.objects["bucket/"+store.ObjectKey("GET /")]
	require.NotNil(t, obj)
	assert.Equal(t, "418", obj.Metadata[metaStatus])
	assert.NotContains(t, obj.Metadata, metaHeader)
	assert.Contains(t, *obj.Key, "pages/")
}

func TestS3StoreHeaderMetadata(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "")
	require.NoError(t, store.Put(context.Background(), "k", sampleEntry()))

	obj := client.objects["bucket/"+store.ObjectKey("k")]
	require.NotNil(t, obj)
	assert.JSONEq(t, `{"X-Page":["home"],"Vary":["Accept","Cookie"]}`, obj.Metadata[metaHeader])

	obj.Metadata[metaHeader] = "{broken"
	_, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestS3StoreExpiry(t *testing.T) {
	store := NewS3Store(newFakeS3(), "bucket", "").WithTTL(time.Minute)
	e := sampleEntry()
	e.StoredAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Put(context.Background(), "k", e))

	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storeContract(t, store)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	store, err := OpenSQLite(":memory:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := sampleEntry()
	e.StoredAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Put(context.Background(), "k", e))

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/page?x=1", nil)
	assert.Equal(t, "GET /page?x=1", Key(r))
	assert.NotEqual(t, hashKey("GET /a"), hashKey("GET /b"))
	assert.Len(t, hashKey("anything"), 64)
}

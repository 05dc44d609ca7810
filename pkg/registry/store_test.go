package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fsroute-dev/fsroute/internal/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")
	store := NewFileStore(path)

	want := []byte(`{"/users":{"GET":{"filePath":"users/index.go"}}}`)
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Load = %s, want %s", got, want)
	}
}

func TestFileStoreOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")
	store := NewFileStore(path)

	if err := store.Save(context.Background(), []byte(`{"old":true}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(context.Background(), []byte(`{"new":true}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"new":true}` {
		t.Errorf("Load = %s", got)
	}
}

func TestFileStoreCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build", "out", "routes.json")
	store := NewFileStore(path)

	if err := store.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("registry missing after save: %v", err)
	}
}

func TestFileStoreLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "routes.json"))

	if err := store.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("stale temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := store.Load(context.Background())
	fe, ok := err.(*errors.Error)
	if !ok || fe.Code != "E021" {
		t.Errorf("Load missing = %v, want E021", err)
	}
}

// fakeS3 stores one object in memory.
type fakeS3 struct {
	data []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.data = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(f.data)))}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3Store(fake, "releases", "prod/routes.json")

	want := []byte(`{"/health":{"GET":{"filePath":"health/index.go"}}}`)
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Load = %s, want %s", got, want)
	}
}

func TestS3StoreErrors(t *testing.T) {
	fake := &fakeS3{err: io.ErrUnexpectedEOF}
	store := NewS3Store(fake, "releases", "prod/routes.json")

	if err := store.Save(context.Background(), []byte(`{}`)); err == nil {
		t.Error("Save should surface client errors")
	}
	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Load should surface client errors")
	}
}

package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/zingerhq/zinger/internal/database"
)

type fakeS3 struct {
	uploads map[string][]byte
	fails   int
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fails > 0 {
		f.fails--
		return nil, io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func testManager(t *testing.T, client s3Client) *Manager {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := Config{
		S3: S3Config{
			Bucket:    "backups",
			Region:    "auto",
			AccessKey: "key",
			SecretKey: "secret",
		},
		Passphrase: "test-passphrase",
	}
	m := NewManager(cfg, db, slog.Default())
	m.client = client
	return m
}

func TestRunUploadsEncryptedSnapshot(t *testing.T) {
	fake := &fakeS3{}
	m := testManager(t, fake)

	key, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(key, "zinger/backup-") || !strings.HasSuffix(key, ".db.enc") {
		t.Errorf("unexpected object key %q", key)
	}

	data, ok := fake.uploads[key]
	if !ok {
		t.Fatalf("no object uploaded under %q", key)
	}

	plain, err := Decrypt(data, "test-passphrase")
	if err != nil {
		t.Fatalf("decrypt uploaded object: %v", err)
	}
	// Every sqlite file starts with this header string.
	if !bytes.HasPrefix(plain, []byte("SQLite format 3")) {
		t.Error("decrypted snapshot is not a sqlite database")
	}
}

func TestRunRetriesUpload(t *testing.T) {
	fake := &fakeS3{fails: 2}
	m := testManager(t, fake)

	key, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run after transient failures: %v", err)
	}
	if _, ok := fake.uploads[key]; !ok {
		t.Error("upload did not land after retries")
	}
}

func TestRunUnconfigured(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	m := NewManager(Config{}, db, slog.Default())
	if m.Configured() {
		t.Error("empty config should not be configured")
	}
	if _, err := m.Run(context.Background()); err == nil {
		t.Error("expected error running unconfigured backup")
	}
}

package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
}

// Manager produces encrypted database snapshots and ships them to
// S3-compatible storage.
type Manager struct {
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger}
	if m.Configured() {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether backups can run.
func (m *Manager) Configured() bool {
	return m.cfg.S3.Bucket != "" && m.cfg.S3.AccessKey != "" && m.cfg.S3.SecretKey != "" && m.cfg.Passphrase != ""
}

// Run snapshots the database, encrypts it, and uploads it. The upload is
// retried with exponential backoff since object storage hiccups are
// common and a daily backup can afford to wait.
func (m *Manager) Run(ctx context.Context) (string, error) {
	if !m.Configured() {
		return "", fmt.Errorf("backup not configured: missing S3 credentials or passphrase")
	}

	snapshot, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}

	encrypted, err := Encrypt(snapshot, m.cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := fmt.Sprintf("zinger/backup-%s.db.enc", time.Now().UTC().Format("2006-01-02T150405Z"))

	backoff := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(m.cfg.S3.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(encrypted),
			ContentLength: aws.Int64(int64(len(encrypted))),
		})
		if err != nil {
			m.logger.Warn("backup upload attempt failed", "key", key, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload backup: %w", err)
	}

	m.logger.Info("backup uploaded", "key", key, "bytes", len(encrypted))
	return key, nil
}

// snapshot writes a consistent copy of the live database with VACUUM INTO
// and returns its contents.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("zinger-snapshot-%d.db", time.Now().UnixNano()))
	defer os.Remove(path)

	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("vacuum into snapshot: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

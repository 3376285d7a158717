package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is the slice of the S3 API the manager uses, kept as an
// interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration. Upload is
// disabled when Bucket or the credentials are empty.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration. When Passphrase is set,
// snapshots are encrypted before upload; the local snapshot stays
// plaintext so restores from disk need no key.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
}

// State represents the backup manager state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateError   State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastTarget string     `json:"last_target,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Manager snapshots the SQLite database to a dated local file and
// optionally uploads it to S3-compatible storage.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db     *sql.DB
	client s3Client
	logger *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		db:     db,
		logger: logger,
		status: Status{State: StateIdle},
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
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

// TargetName is the default snapshot filename for the given day,
// e.g. "backup_2026_08_23.db".
func TargetName(day time.Time) string {
	return day.Format("backup_2006_01_02.db")
}

// Status returns a copy of the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Run writes a consistent snapshot of the live database to target and,
// when S3 is configured, uploads it. An empty target defaults to a
// dated filename next to the database.
func (m *Manager) Run(ctx context.Context, target string) error {
	if target == "" {
		target = filepath.Join(filepath.Dir(m.cfg.DBPath), TargetName(time.Now()))
	}
	m.setStatus(Status{State: StateRunning})

	if err := m.snapshot(ctx, target); err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return err
	}

	if m.client != nil {
		if err := m.upload(ctx, target); err != nil {
			m.setStatus(Status{State: StateError, Error: err.Error()})
			return err
		}
	}

	now := time.Now()
	m.setStatus(Status{State: StateIdle, LastBackup: &now, LastTarget: target})
	m.logger.Info("backup complete", "target", target, "uploaded", m.client != nil)
	return nil
}

// snapshot uses VACUUM INTO, which produces a compacted, transactionally
// consistent copy without blocking writers for the whole duration.
// SQLite does not bind the filename, so single quotes in the path are
// escaped by doubling.
func (m *Manager) snapshot(ctx context.Context, target string) error {
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}
	quoted := strings.ReplaceAll(target, "'", "''")
	if _, err := m.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}
	return nil
}

func (m *Manager) upload(ctx context.Context, target string) error {
	src := target
	if m.cfg.Passphrase != "" {
		src = target + ".enc"
		if err := EncryptFile(target, src, m.cfg.Passphrase); err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
		defer os.Remove(src)
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(src))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	m.logger.Info("snapshot uploaded", "bucket", m.cfg.S3.Bucket, "key", key)
	return nil
}

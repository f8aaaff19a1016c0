// Package storage persists the host's configuration documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"modelhostd/internal/common/fsutil"
)

// Document names used by the host.
const (
	DocAssignment = "model_assignment"
	DocAdapters   = "active_loras"
)

const defaultRedisPrefix = "modelhostd:"

// DocumentStore loads and saves whole JSON documents by name.
type DocumentStore interface {
	// Load decodes the named document into v. found is false when the
	// document does not exist yet; v is left untouched in that case.
	Load(ctx context.Context, name string, v any) (found bool, err error)
	Save(ctx context.Context, name string, v any) error
	Close() error
}

// FileStore keeps each document as <dir>/<name>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing the named document.
func (fs *FileStore) Path(name string) string {
	return filepath.Join(fs.dir, name+".json")
}

func (fs *FileStore) Load(_ context.Context, name string, v any) (bool, error) {
	data, err := os.ReadFile(fs.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (fs *FileStore) Save(_ context.Context, name string, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return fsutil.WriteFileAtomic(fs.Path(name), append(data, '\n'), 0o644)
}

func (fs *FileStore) Close() error {
	return nil
}

// RedisStore keeps each document under <prefix><name>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisConfig configures RedisStore.
type RedisConfig struct {
	URL    string
	Prefix string
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (rs *RedisStore) Load(ctx context.Context, name string, v any) (bool, error) {
	val, err := rs.client.Get(ctx, rs.prefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := sonic.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (rs *RedisStore) Save(ctx context.Context, name string, v any) error {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return rs.client.Set(ctx, rs.prefix+name, data, 0).Err()
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// Open selects a backend. kind is "file" (default) or "redis".
func Open(ctx context.Context, kind, dataDir, redisURL string, log zerolog.Logger) (DocumentStore, error) {
	switch strings.ToLower(kind) {
	case "", "file":
		fs, err := NewFileStore(dataDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", "file").Str("dir", dataDir).Msg("document storage ready")
		return fs, nil
	case "redis":
		if redisURL == "" {
			return nil, errors.New("redis storage requires a redis url")
		}
		rs, err := NewRedisStore(ctx, RedisConfig{URL: redisURL})
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", "redis").Msg("document storage ready")
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", kind)
	}
}

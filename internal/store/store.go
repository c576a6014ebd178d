// Package store keeps finished plan runs so they can be fetched, reranked or
// combined later.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/dharmasatrya/flightplanner/internal/document"
)

var ErrNotFound = errors.New("plan run not found")

type Store interface {
	Save(ctx context.Context, res *document.Results) error
	Load(ctx context.Context, runID string) (*document.Results, error)
	Close() error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string        `yaml:"host" mapstructure:"host"`
	Port     string        `yaml:"port" mapstructure:"port"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      24 * time.Hour,
	}
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrapf(err, "ping redis %s", cfg.Host+":"+cfg.Port)
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, res *document.Results) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "encode plan run")
	}

	if err := s.client.Set(ctx, key(res.RunID), data, s.ttl).Err(); err != nil {
		return eris.Wrapf(err, "store plan run %s", res.RunID)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, runID string) (*document.Results, error) {
	data, err := s.client.Get(ctx, key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load plan run %s", runID)
	}

	var res document.Results
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, eris.Wrapf(err, "decode plan run %s", runID)
	}
	return &res, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func key(runID string) string {
	return "plan:" + runID
}

// FileStore keeps one YAML results document per run in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(runID string) string {
	return filepath.Join(s.dir, "results_"+filepath.Base(runID)+".yaml")
}

func (s *FileStore) Save(ctx context.Context, res *document.Results) error {
	return document.SaveResults(s.path(res.RunID), res)
}

func (s *FileStore) Load(ctx context.Context, runID string) (*document.Results, error) {
	path := s.path(runID)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return document.LoadResults(path)
}

func (s *FileStore) Close() error {
	return nil
}

type NoOpStore struct{}

func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

func (s *NoOpStore) Save(ctx context.Context, res *document.Results) error {
	return nil
}

func (s *NoOpStore) Load(ctx context.Context, runID string) (*document.Results, error) {
	return nil, ErrNotFound
}

func (s *NoOpStore) Close() error {
	return nil
}

const (
	DriverRedis = "redis"
	DriverFile  = "file"
	DriverNone  = "none"
)

// Config selects and configures the store backend.
type Config struct {
	Driver string      `yaml:"driver" mapstructure:"driver"`
	Dir    string      `yaml:"dir" mapstructure:"dir"`
	Redis  RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// Open builds the configured store. An empty driver means no store.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverRedis:
		s, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverFile:
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverNone, "":
		return NewNoOpStore(), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}

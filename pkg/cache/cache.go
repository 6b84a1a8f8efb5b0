package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
//
// Values are stored as bytes: []byte and string values are kept verbatim,
// everything else is JSON encoded. Get decodes into dest the same way.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode cache value: %w", err)
		}
		return data, nil
	}
}

func decodeValue(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *[]byte:
		out := make([]byte, len(data))
		copy(out, data)
		*d = out
		return nil
	case *string:
		*d = string(data)
		return nil
	default:
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("decode cache value: %w", err)
		}
		return nil
	}
}

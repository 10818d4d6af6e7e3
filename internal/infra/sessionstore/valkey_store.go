package sessionstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
)

// ValkeyStore persists revoked session ids in a Valkey-compatible database.
// Keys expire together with the token they revoke.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "session"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Connect dials addr, which is either host:port or a redis:// URL, and pings it.
func Connect(ctx context.Context, addr string) (valkey.Client, error) {
	opt, err := ClientOptions(addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// ClientOptions parses a store address.
func ClientOptions(addr string) (valkey.ClientOption, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return valkey.ClientOption{}, fmt.Errorf("session store address is empty")
	}
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func (s *ValkeyStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := s.client.B().Set().Key(s.revokedKey(tokenID)).Value("1").Ex(ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	count, err := s.client.Do(ctx, s.client.B().Exists().Key(s.revokedKey(tokenID)).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}

// Close releases the client.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}

func (s *ValkeyStore) revokedKey(tokenID string) string {
	return fmt.Sprintf("%s:revoked:%s", s.prefix, tokenID)
}

var _ auth.RevocationStore = (*ValkeyStore)(nil)

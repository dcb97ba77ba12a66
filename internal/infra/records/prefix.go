package records

import (
	"context"

	domain "github.com/bryanwahyu/threatdesk/internal/domain/records"
)

type prefixed struct {
	domain.Store
	prefix string
}

// WithPrefix namespaces every key so several consoles can share one backend.
func WithPrefix(s domain.Store, prefix string) domain.Store {
	if prefix == "" {
		return s
	}
	return prefixed{Store: s, prefix: prefix}
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p prefixed) Put(ctx context.Context, key string, data []byte) error {
	return p.Store.Put(ctx, p.prefix+key, data)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.Store.Delete(ctx, p.prefix+key)
}

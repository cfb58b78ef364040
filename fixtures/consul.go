package fixtures

import (
	"context"
	"fmt"

	consul "github.com/hashicorp/consul/api"
)

// ConsulStore resets a Consul KV store by deleting every key under a prefix.
type ConsulStore struct {
	consul *consul.Client
	prefix string
}

// NewConsulStore creates a ConsulStore. A nil config means consul.DefaultConfig(), which honors
// the usual CONSUL_HTTP_ADDR environment variables. An empty prefix deletes the whole tree.
func NewConsulStore(config *consul.Config, prefix string) (*ConsulStore, error) {
	if config == nil {
		config = consul.DefaultConfig()
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}
	return &ConsulStore{consul: client, prefix: prefix}, nil
}

func (c *ConsulStore) Name() string {
	return "consul:" + c.treePrefix()
}

func (c *ConsulStore) Reset(ctx context.Context) error {
	_, err := c.consul.KV().DeleteTree(c.treePrefix(), (&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *ConsulStore) treePrefix() string {
	if c.prefix == "" {
		return "/"
	}
	return c.prefix
}

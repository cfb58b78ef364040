package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/launchdarkly/app-test-harness/config"
	"github.com/launchdarkly/app-test-harness/fixtures"
)

type commandParams struct {
	harness          config.Params
	redisAddr        string
	redisDB          int
	consulPrefix     string
	useConsul        bool
	dynamoDBTable    string
	dynamoDBKeys     []string
	dynamoDBEndpoint string
	dynamoDBRegion   string
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	c.harness.AddFlags(fs)
	fs.StringVar(&c.redisAddr, "redis", "", "address of a Redis server to flush before each test")
	fs.IntVar(&c.redisDB, "redis-db", 0, "Redis database number")
	fs.BoolVar(&c.useConsul, "consul", false, "delete Consul keys before each test (see -consul-prefix)")
	fs.StringVar(&c.consulPrefix, "consul-prefix", "", "Consul key prefix to delete; the default is all keys")
	fs.StringVar(&c.dynamoDBTable, "dynamodb-table", "", "DynamoDB table to empty before each test")
	fs.Func("dynamodb-key", "DynamoDB key attribute name (repeat for a sort key)", func(s string) error {
		c.dynamoDBKeys = append(c.dynamoDBKeys, s)
		return nil
	})
	fs.StringVar(&c.dynamoDBEndpoint, "dynamodb-endpoint", "", "DynamoDB endpoint URL, for a local instance")
	fs.StringVar(&c.dynamoDBRegion, "dynamodb-region", "us-east-1", "AWS region for DynamoDB")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if err := c.harness.Check(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.dynamoDBTable != "" && len(c.dynamoDBKeys) == 0 {
		fmt.Fprintln(os.Stderr, "-dynamodb-key is required with -dynamodb-table")
		fs.Usage()
		return false
	}
	return true
}

func (c commandParams) fixtureStores() ([]fixtures.Store, error) {
	var stores []fixtures.Store
	if c.redisAddr != "" {
		stores = append(stores, fixtures.NewRedisStore(&redis.Options{Addr: c.redisAddr, DB: c.redisDB}))
	}
	if c.useConsul || c.consulPrefix != "" {
		store, err := fixtures.NewConsulStore(nil, c.consulPrefix)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	if c.dynamoDBTable != "" {
		store, err := fixtures.NewDynamoDBStoreForEndpoint(c.dynamoDBEndpoint, c.dynamoDBRegion,
			c.dynamoDBTable, c.dynamoDBKeys...)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, nil
}

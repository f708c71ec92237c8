package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/Lzww0608/fastuuid"
	"github.com/Lzww0608/fastuuid/resolver/sqlnode"
	"github.com/Lzww0608/fastuuid/resolver/zknode"
)

// maxClockSeq is the largest 14-bit clock sequence.
const maxClockSeq = 0x3fff

// GenCmd generates UUIDs of one version.
type GenCmd struct {
	Version string `help:"UUID version: 1, 1mc, 3, 4, 5 or 7." enum:"1,1mc,3,4,5,7" default:"4" env:"FASTUUID_VERSION"`
	Count   int    `short:"n" help:"Number of UUIDs to generate." default:"1" env:"FASTUUID_COUNT"`
	Format  string `help:"Output format: hyphen, hex or urn." enum:"hyphen,hex,urn" default:"hyphen" env:"FASTUUID_FORMAT"`
	Workers int    `help:"Generate versions 4 and 7 on this many goroutines; 0 uses every CPU." default:"1" env:"FASTUUID_WORKERS"`

	Namespace string `help:"Namespace for versions 3 and 5: dns, url, oid, x500 or a UUID." default:"dns" env:"FASTUUID_NAMESPACE"`
	Name      string `help:"Name for versions 3 and 5." env:"FASTUUID_NAME"`

	Node       string `help:"Version 1 node as 12 hex digits, colons allowed. Overrides --node-source." env:"FASTUUID_NODE"`
	ClockSeq   int    `name:"clock-seq" help:"Version 1 clock sequence; negative draws one from the generator." default:"-1" env:"FASTUUID_CLOCK_SEQ"`
	NodeSource string `name:"node-source" help:"Version 1 node source: hardware, random, sql or zk." enum:"hardware,random,sql,zk" default:"hardware" env:"FASTUUID_NODE_SOURCE"`
	Interface  string `help:"Network interface for --node-source=hardware." env:"FASTUUID_INTERFACE"`

	SQLDriver string `name:"sql-driver" help:"database/sql driver for --node-source=sql." enum:"mysql,sqlite3" default:"mysql" env:"FASTUUID_SQL_DRIVER"`
	SQLDSN    string `name:"sql-dsn" help:"DSN for --node-source=sql." env:"FASTUUID_SQL_DSN"`
	SQLPool   string `name:"sql-pool" help:"Node pool in the allocation table." default:"default" env:"FASTUUID_SQL_POOL"`
	SQLStep   int    `name:"sql-step" help:"Node ids reserved per round trip." default:"100" env:"FASTUUID_SQL_STEP"`

	ZKServers  []string      `name:"zk-servers" help:"ZooKeeper servers for --node-source=zk." default:"127.0.0.1:2181" env:"FASTUUID_ZK_SERVERS"`
	ZKService  string        `name:"zk-service" help:"Service name to register under." default:"fastuuid" env:"FASTUUID_ZK_SERVICE"`
	ZKInstance string        `name:"zk-instance" help:"Instance name; defaults to the host name." env:"FASTUUID_ZK_INSTANCE"`
	ZKCacheDir string        `name:"zk-cache-dir" help:"Directory for the worker id cache file." env:"FASTUUID_ZK_CACHE_DIR"`
	ZKTimeout  time.Duration `name:"zk-timeout" help:"ZooKeeper session timeout." default:"10s" env:"FASTUUID_ZK_TIMEOUT"`
}

// Run implements the gen command.
func (c *GenCmd) Run(e *runEnv) error {
	if c.Count < 0 {
		return errors.Errorf("--count must not be negative, got %d", c.Count)
	}
	if c.ClockSeq > maxClockSeq {
		return errors.Errorf("--clock-seq must be at most %d, got %d", maxClockSeq, c.ClockSeq)
	}

	ids, err := c.generate(e)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(e.out, format(id, c.Format)); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return nil
}

func (c *GenCmd) generate(e *runEnv) ([]fastuuid.UUID, error) {
	switch c.Version {
	case "3", "5":
		return c.nameBased()
	case "4":
		gen := fastuuid.NewGenerator()
		if c.Workers != 1 {
			return gen.ParallelV4Bulk(e.ctx, c.Count, c.Workers)
		}
		return gen.NewV4Bulk(c.Count)
	case "7":
		gen := fastuuid.NewGenerator()
		if c.Workers != 1 {
			return gen.ParallelV7Bulk(e.ctx, c.Count, c.Workers)
		}
		return gen.NewV7Bulk(c.Count)
	case "1mc":
		return repeat(c.Count, fastuuid.NewGenerator().NewV1MC)
	case "1":
		return c.timeBased(e)
	}
	return nil, errors.Errorf("unsupported version %q", c.Version)
}

func (c *GenCmd) nameBased() ([]fastuuid.UUID, error) {
	if c.Name == "" {
		return nil, errors.New("--name is required for versions 3 and 5")
	}
	ns, err := parseNamespace(c.Namespace)
	if err != nil {
		return nil, err
	}
	id := fastuuid.NewV5(ns, []byte(c.Name))
	if c.Version == "3" {
		id = fastuuid.NewV3(ns, []byte(c.Name))
	}
	// same inputs, same UUID
	ids := make([]fastuuid.UUID, c.Count)
	for i := range ids {
		ids[i] = id
	}
	return ids, nil
}

func (c *GenCmd) timeBased(e *runEnv) ([]fastuuid.UUID, error) {
	var opts []fastuuid.V1Option
	if c.ClockSeq >= 0 {
		opts = append(opts, fastuuid.WithClockSeq(uint16(c.ClockSeq)))
	}

	var genOpts []fastuuid.GeneratorOption
	if c.Node != "" {
		node, err := parseNode(c.Node)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fastuuid.WithNode(node))
	} else {
		resolver, cleanup, err := c.nodeResolver(e)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		genOpts = append(genOpts, fastuuid.WithNodeResolver(resolver))
	}

	gen := fastuuid.NewGenerator(genOpts...)
	return repeat(c.Count, func() (fastuuid.UUID, error) {
		return gen.NewV1(opts...)
	})
}

// nodeResolver builds the resolver named by --node-source. The cleanup
// function releases whatever connections it opened.
func (c *GenCmd) nodeResolver(e *runEnv) (fastuuid.NodeResolver, func(), error) {
	noop := func() {}
	switch c.NodeSource {
	case "random":
		return fastuuid.NewCachedNode(fastuuid.RandomNode{}), noop, nil
	case "sql":
		return c.sqlResolver(e)
	case "zk":
		return c.zkResolver(e)
	}
	return fastuuid.NewCachedNode(fastuuid.HardwareNode{Interface: c.Interface}), noop, nil
}

func (c *GenCmd) sqlResolver(e *runEnv) (fastuuid.NodeResolver, func(), error) {
	if c.SQLDSN == "" {
		return nil, nil, errors.New("--sql-dsn is required for --node-source=sql")
	}
	dao, err := sqlnode.OpenDriver(c.SQLDriver, c.SQLDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := setupPool(e.ctx, dao, c.SQLPool, c.SQLStep); err != nil {
		dao.Close()
		return nil, nil, err
	}
	alloc, err := sqlnode.NewAllocator(e.ctx, dao, c.SQLPool, sqlnode.WithLogger(e.log))
	if err != nil {
		dao.Close()
		return nil, nil, err
	}
	cleanup := func() {
		alloc.Close()
		if err := dao.Close(); err != nil {
			e.log.Warningf("unable to close node database: %s", err)
		}
	}
	return fastuuid.NewCachedNode(alloc), cleanup, nil
}

func setupPool(ctx context.Context, dao *sqlnode.DAO, pool string, step int) error {
	if err := dao.CreateTable(ctx); err != nil {
		return err
	}
	return dao.EnsurePool(ctx, pool, step)
}

func (c *GenCmd) zkResolver(e *runEnv) (fastuuid.NodeResolver, func(), error) {
	instance := c.ZKInstance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to determine --zk-instance")
		}
		instance = host
	}
	reg, err := zknode.Connect(c.ZKServers, c.ZKTimeout, zknode.Config{
		Service:  c.ZKService,
		Instance: instance,
		CacheDir: c.ZKCacheDir,
		Logger:   e.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, reg.Close, nil
}

func repeat(n int, next func() (fastuuid.UUID, error)) ([]fastuuid.UUID, error) {
	ids := make([]fastuuid.UUID, n)
	for i := range ids {
		id, err := next()
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func format(id fastuuid.UUID, f string) string {
	switch f {
	case "hex":
		return id.Hex()
	case "urn":
		return id.URN()
	}
	return id.String()
}

func parseNamespace(s string) (fastuuid.UUID, error) {
	switch strings.ToLower(s) {
	case "dns":
		return fastuuid.NamespaceDNS, nil
	case "url":
		return fastuuid.NamespaceURL, nil
	case "oid":
		return fastuuid.NamespaceOID, nil
	case "x500":
		return fastuuid.NamespaceX500, nil
	}
	ns, err := fastuuid.Parse(s)
	if err != nil {
		return fastuuid.Nil, errors.Wrapf(err, "invalid --namespace")
	}
	return ns, nil
}

func parseNode(s string) (uint64, error) {
	digits := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if len(digits) != 12 {
		return 0, errors.Errorf("invalid --node %q: want 12 hex digits", s)
	}
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid --node %q", s)
	}
	return n, nil
}

// Package zknode registers a process in ZooKeeper and derives a version 1
// node identifier from the worker id it is assigned there.
//
// Each instance owns /<root>/<service>/<instance> holding a JSON NodeInfo. A
// restarted instance recovers its worker id from that node, or from a local
// cache file when ZooKeeper lost it; a new instance draws a fresh id from a
// sequential znode. The recorded last_time guards against a clock that moved
// backwards while the process was down.
package zknode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Lzww0608/fastuuid"
)

const (
	// DefaultRoot is the ZooKeeper path all services register under.
	DefaultRoot = "/fastuuid"
	// DefaultHeartbeat is how often Run refreshes last_time.
	DefaultHeartbeat = 3 * time.Second

	idsNode   = "ids"
	seqPrefix = "id-"
)

// ErrClockMovedBackwards is returned when the local clock is behind the
// last_time recorded by a previous run of the same instance.
var ErrClockMovedBackwards = errors.New("zknode: clock moved backwards")

// Conn is the subset of *zk.Conn used by the registry.
type Conn interface {
	Exists(path string) (bool, *zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Set(path string, data []byte, version int32) (*zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
}

// NodeInfo is stored in the instance znode and in the local cache file.
type NodeInfo struct {
	LastTime   int64  `json:"last_time"`   // Unix ms of the last heartbeat
	CreateTime int64  `json:"create_time"` // Unix ms of the first registration
	WorkerID   uint64 `json:"worker_id"`
}

// Config describes one registering instance.
type Config struct {
	Root     string // defaults to DefaultRoot
	Service  string
	Instance string // unique per process, e.g. host:port

	// CacheDir holds the local recovery file. Empty disables the cache.
	CacheDir string

	Heartbeat time.Duration // defaults to DefaultHeartbeat
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// Registry is a registered instance. It implements fastuuid.NodeResolver.
type Registry struct {
	conn     Conn
	cfg      Config
	log      logrus.FieldLogger
	workerID uint64
	created  int64
	lastTime atomic.Int64
	closer   func()
}

// Connect dials ZooKeeper and registers the instance described by cfg.
// The connection is closed by Registry.Close.
func Connect(servers []string, sessionTimeout time.Duration, cfg Config) (*Registry, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	conn, _, err := zk.Connect(servers, sessionTimeout, zk.WithLogger(cfg.Logger))
	if err != nil {
		return nil, errors.Wrap(err, "zknode: connect")
	}
	r, err := Register(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	r.closer = conn.Close
	return r, nil
}

// Register registers or recovers the instance on an existing connection.
func Register(conn Conn, cfg Config) (*Registry, error) {
	if cfg.Service == "" || cfg.Instance == "" {
		return nil, errors.New("zknode: service and instance are required")
	}
	if strings.Contains(cfg.Service, "/") || strings.Contains(cfg.Instance, "/") {
		return nil, errors.Errorf("zknode: service %q and instance %q must not contain '/'", cfg.Service, cfg.Instance)
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Registry{
		conn: conn,
		cfg:  cfg,
		log: cfg.Logger.WithFields(logrus.Fields{
			"service":  cfg.Service,
			"instance": cfg.Instance,
		}),
	}
	if err := r.registerOrRecover(); err != nil {
		return nil, err
	}
	r.log.WithField("worker_id", r.workerID).Info("zknode: registered")
	return r, nil
}

func (r *Registry) servicePath() string {
	return path.Join(r.cfg.Root, r.cfg.Service)
}

func (r *Registry) nodeKey() string {
	return path.Join(r.servicePath(), r.cfg.Instance)
}

func (r *Registry) registerOrRecover() error {
	if err := r.ensurePath(path.Join(r.servicePath(), idsNode)); err != nil {
		return err
	}

	key := r.nodeKey()
	now := r.cfg.Now().UnixMilli()

	exists, _, err := r.conn.Exists(key)
	if err != nil {
		return errors.Wrapf(err, "zknode: check %s", key)
	}

	var info NodeInfo
	if exists {
		data, _, err := r.conn.Get(key)
		if err != nil {
			return errors.Wrapf(err, "zknode: get %s", key)
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return errors.Wrapf(err, "zknode: decode %s", key)
		}
		if now < info.LastTime {
			return errors.WithMessagef(ErrClockMovedBackwards, "%d < %d", now, info.LastTime)
		}
		r.log.WithField("worker_id", info.WorkerID).Info("zknode: recovered worker id from zookeeper")
	} else {
		cached, err := r.loadLocalCache()
		switch {
		case err == nil:
			if now < cached.LastTime {
				return errors.WithMessagef(ErrClockMovedBackwards, "%d < %d (local cache)", now, cached.LastTime)
			}
			info = cached
			r.log.WithField("worker_id", info.WorkerID).Info("zknode: recovered worker id from local cache")
		default:
			if !errors.Is(err, os.ErrNotExist) {
				r.log.WithError(err).Warn("zknode: ignoring unreadable local cache")
			}
			id, err := r.allocateWorkerID()
			if err != nil {
				return err
			}
			info = NodeInfo{WorkerID: id, CreateTime: now}
		}
	}
	info.LastTime = now

	data, err := json.Marshal(info)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		_, err = r.conn.Set(key, data, -1)
	} else {
		_, err = r.conn.Create(key, data, 0, zk.WorldACL(zk.PermAll))
	}
	if err != nil {
		return errors.Wrapf(err, "zknode: write %s", key)
	}

	r.workerID = info.WorkerID
	r.created = info.CreateTime
	r.lastTime.Store(now)
	r.saveLocalCache(info)
	return nil
}

// allocateWorkerID creates a persistent sequential znode; its counter is the id.
func (r *Registry) allocateWorkerID() (uint64, error) {
	prefix := path.Join(r.servicePath(), idsNode, seqPrefix)
	created, err := r.conn.Create(prefix, nil, zk.FlagSequence, zk.WorldACL(zk.PermAll))
	if err != nil {
		return 0, errors.Wrap(err, "zknode: allocate worker id")
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(path.Base(created), seqPrefix), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "zknode: parse sequence node %s", created)
	}
	r.log.WithField("worker_id", id).Info("zknode: allocated new worker id")
	return id, nil
}

// ensurePath creates p and its parents, tolerating concurrent creators.
func (r *Registry) ensurePath(p string) error {
	cur := ""
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		cur += "/" + part
		exists, _, err := r.conn.Exists(cur)
		if err != nil {
			return errors.Wrapf(err, "zknode: check %s", cur)
		}
		if exists {
			continue
		}
		_, err = r.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return errors.Wrapf(err, "zknode: create %s", cur)
		}
	}
	return nil
}

// Run refreshes last_time in ZooKeeper and the local cache every heartbeat
// interval until ctx is done. Failed uploads are logged and retried on the
// next tick.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.beat()
		}
	}
}

func (r *Registry) beat() {
	now := r.cfg.Now().UnixMilli()
	if last := r.lastTime.Load(); now < last {
		r.log.WithFields(logrus.Fields{"now": now, "last_time": last}).Warn("zknode: clock rollback detected during heartbeat")
		return
	}

	info := NodeInfo{WorkerID: r.workerID, CreateTime: r.created, LastTime: now}
	data, err := json.Marshal(info)
	if err != nil {
		r.log.WithError(err).Error("zknode: encode heartbeat")
		return
	}
	if _, err := r.conn.Set(r.nodeKey(), data, -1); err != nil {
		r.log.WithError(err).Warn("zknode: heartbeat upload failed")
		return
	}
	r.lastTime.Store(now)
	r.saveLocalCache(info)
}

// WorkerID returns the id assigned to this instance.
func (r *Registry) WorkerID() uint64 {
	return r.workerID
}

// ResolveNode implements fastuuid.NodeResolver: the worker id with the
// multicast bit set.
func (r *Registry) ResolveNode() (fastuuid.Node, error) {
	return fastuuid.MulticastNode(r.workerID)
}

// Close closes the ZooKeeper connection if Connect opened it.
func (r *Registry) Close() {
	if r.closer != nil {
		r.closer()
	}
}

func (r *Registry) cacheFile() string {
	if r.cfg.CacheDir == "" {
		return ""
	}
	name := fmt.Sprintf(".fastuuid_cache_%s_%s", r.cfg.Service, r.cfg.Instance)
	name = strings.NewReplacer(":", "_", string(filepath.Separator), "_").Replace(name)
	return filepath.Join(r.cfg.CacheDir, name)
}

func (r *Registry) saveLocalCache(info NodeInfo) {
	file := r.cacheFile()
	if file == "" {
		return
	}
	data, err := json.Marshal(info)
	if err == nil {
		err = os.WriteFile(file, data, 0o644)
	}
	if err != nil {
		r.log.WithError(err).Warn("zknode: save local cache")
	}
}

func (r *Registry) loadLocalCache() (NodeInfo, error) {
	file := r.cacheFile()
	if file == "" {
		return NodeInfo{}, errors.WithStack(os.ErrNotExist)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return NodeInfo{}, errors.WithStack(err)
	}
	var info NodeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return NodeInfo{}, errors.Wrapf(err, "decode %s", file)
	}
	return info, nil
}

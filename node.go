package fastuuid

import (
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// Node is a 48-bit node identifier, historically an IEEE 802 MAC address.
type Node [6]byte

// multicastBit is the least significant bit of the first octet.
const multicastBit = 1 << 40

// NodeFromUint64 converts the low 48 bits of n. Values of 2^48 or more are
// rejected with a *FieldError for field 6.
func NodeFromUint64(n uint64) (Node, error) {
	if n>>48 != 0 {
		return Node{}, &FieldError{Field: 6, Bits: 48}
	}
	var node Node
	putNode(node[:], n)
	return node, nil
}

// MulticastNode derives a node from an allocated identifier such as a
// worker id. The id occupies the low 40 bits and the first octet is 0x01,
// so the result can never collide with a real hardware address.
func MulticastNode(id uint64) (Node, error) {
	if id >= multicastBit {
		return Node{}, errors.Errorf("fastuuid: node id %d exceeds 40 bits", id)
	}
	return NodeFromUint64(id | multicastBit)
}

// Uint64 returns the node as an integer below 2^48.
func (n Node) Uint64() uint64 {
	return uint64(n[0])<<40 | uint64(n[1])<<32 | uint64(n[2])<<24 |
		uint64(n[3])<<16 | uint64(n[4])<<8 | uint64(n[5])
}

// IsMulticast reports whether the multicast bit is set, which marks a node
// that is not a real hardware address (RFC 4122 section 4.5).
func (n Node) IsMulticast() bool {
	return n[0]&0x01 != 0
}

// String returns the node as colon-separated hex octets.
func (n Node) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", n[0], n[1], n[2], n[3], n[4], n[5])
}

// NodeResolver supplies the node identifier for version 1 UUIDs.
type NodeResolver interface {
	ResolveNode() (Node, error)
}

// StaticNode always resolves to itself.
type StaticNode Node

// ResolveNode implements NodeResolver.
func (s StaticNode) ResolveNode() (Node, error) {
	return Node(s), nil
}

// HardwareNode resolves the first non-zero hardware address of the host's
// network interfaces. Interface is an optional interface name filter.
type HardwareNode struct {
	Interface string

	// interfaces is replaced in tests.
	interfaces func() ([]net.Interface, error)
}

// ResolveNode implements NodeResolver.
func (h HardwareNode) ResolveNode() (Node, error) {
	list := h.interfaces
	if list == nil {
		list = net.Interfaces
	}
	ifaces, err := list()
	if err != nil {
		return Node{}, errors.WithMessage(ErrEnvironmentUnavailable, err.Error())
	}
	for _, ifi := range ifaces {
		if h.Interface != "" && ifi.Name != h.Interface {
			continue
		}
		// EUI-48 only; InfiniBand and EUI-64 addresses do not fit a node
		if len(ifi.HardwareAddr) != 6 {
			continue
		}
		var node Node
		copy(node[:], ifi.HardwareAddr)
		if node != (Node{}) {
			return node, nil
		}
	}
	return Node{}, errors.WithMessage(ErrEnvironmentUnavailable, "no interface with a hardware address")
}

// RandomNode resolves a fresh random node with the multicast bit set on
// every call. Rand defaults to crypto/rand.
type RandomNode struct {
	Rand io.Reader
}

// ResolveNode implements NodeResolver.
func (r RandomNode) ResolveNode() (Node, error) {
	src := r.Rand
	if src == nil {
		src = rand.Reader
	}
	return randomNode(src)
}

func randomNode(src io.Reader) (Node, error) {
	var node Node
	if _, err := io.ReadFull(src, node[:]); err != nil {
		return Node{}, err
	}
	node[0] |= 0x01
	return node, nil
}

// CachedNode wraps a resolver and remembers its first successful result.
// Failures are not cached, so a later call may still succeed.
type CachedNode struct {
	resolver NodeResolver

	mu    sync.Mutex
	node  Node
	found bool
}

// NewCachedNode returns a caching wrapper around r.
func NewCachedNode(r NodeResolver) *CachedNode {
	return &CachedNode{resolver: r}
}

// ResolveNode implements NodeResolver.
func (c *CachedNode) ResolveNode() (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.found {
		return c.node, nil
	}
	node, err := c.resolver.ResolveNode()
	if err != nil {
		return Node{}, err
	}
	c.node, c.found = node, true
	return node, nil
}

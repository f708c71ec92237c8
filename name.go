package fastuuid

import (
	"crypto/md5"
	"crypto/sha1"
	"hash"
)

// Well known namespaces from RFC 4122 Appendix C.
var (
	NamespaceDNS  = MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	NamespaceURL  = MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
	NamespaceOID  = MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")
	NamespaceX500 = MustParse("6ba7b814-9dad-11d1-80b4-00c04fd430c8")
)

// NewHash returns the name-based UUID of name within namespace ns: the first
// 16 bytes of h(ns || name) with version v and the RFC 4122 variant.
// The same inputs always give the same UUID.
func NewHash(h hash.Hash, ns UUID, name []byte, v Version) UUID {
	h.Reset()
	h.Write(ns[:])
	h.Write(name)

	var sum [sha1.Size]byte
	var uuid UUID
	copy(uuid[:], h.Sum(sum[:0]))
	uuid.setVersionVariant(v)
	return uuid
}

// NewV3 returns the MD5 name-based UUID of name in ns.
func NewV3(ns UUID, name []byte) UUID {
	return NewHash(md5.New(), ns, name, VersionNameBasedMD5)
}

// NewV5 returns the SHA-1 name-based UUID of name in ns.
func NewV5(ns UUID, name []byte) UUID {
	return NewHash(sha1.New(), ns, name, VersionNameBasedSHA1)
}

// Package fastuuid provides a small, fast and standards compliant implementation of
// Universally Unique Identifiers (RFC 4122 / RFC 9562) in Go.
//
// A UUID is a 16 byte value stored in big-endian order. Every other view of it
// (hex strings, little-endian bytes, the RFC 4122 fields, a 128-bit integer) is
// computed from those bytes.
//
// Construction:
//
//	// From any of the canonical string forms
//	id, err := fastuuid.Parse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
//
//	// From raw inputs; exactly one must be given
//	hex := "{f47ac10b-58cc-4372-a567-0e02b2c3d479}"
//	id, err = fastuuid.FromInput(fastuuid.Input{Hex: &hex})
//	id, err = fastuuid.FromInput(fastuuid.Input{BytesLE: raw, Version: fastuuid.VersionRandom})
//	id, err = fastuuid.FromFieldValues(0xf47ac10b, 0x58cc, 0x4372, 0xa5, 0x67, 0x0e02b2c3d479)
//
// Generation:
//
//	id, err := fastuuid.NewV4()                 // random
//	id, err = fastuuid.NewV7()                  // Unix milliseconds + random
//	id, err = fastuuid.NewV1()                  // time + clock sequence + host node
//	id, err = fastuuid.NewV1(fastuuid.WithNode(0x0123456789ab), fastuuid.WithClockSeq(42))
//	id, err = fastuuid.NewV1MC()                // time + random multicast node
//	id = fastuuid.NewV5(fastuuid.NamespaceDNS, []byte("python.org"))
//	ids, err := fastuuid.NewV4Bulk(10000)
//
// Custom Generator:
//
//	gen := fastuuid.NewGenerator(
//	    fastuuid.WithNodeResolver(fastuuid.NewCachedNode(resolver)),
//	)
//	ids, err := gen.ParallelV7Bulk(ctx, 1_000_000, 8)
//
// Node resolution for version 1 is pluggable: StaticNode, HardwareNode,
// RandomNode and CachedNode live here, and the resolver/sqlnode and
// resolver/zknode packages hand out cluster-unique nodes.
//
// Thread Safety:
//
// UUID values are immutable arrays and may be shared freely. Generators are
// safe for concurrent use; the version 1 clock sequence is an atomic counter
// seeded from the random source on first use.
package fastuuid

// Package model defines the core value types of the metadata index: composite
// keys, versioned records, and backlink entries.
//
// # Composite Keys
//
// Every record in the index is addressed by a Key with three ordered fields:
//
//	Major  uint64   — inode number or hash value, depending on Type
//	Type   KeyType  — tag selecting the logical key class
//	Minor  uint64   — sub-record discriminator (offset, ordinal, inode)
//
// The index is sorted lexicographically over (Major, Type, Minor). A single
// flat keyspace multiplexes inode records, data-extent maps, attribute hash
// buckets, and link backrefs through the Type tag.
//
// # Key Layout Per Type
//
//	TypeInode        (ino,  TypeInode,       0)        inode metadata record
//	TypeBmap         (ino,  TypeBmap,        offset)   data-extent map record
//	TypeXattrName    (hash, TypeXattrName,   ino)      attribute name bucket
//	TypeXattrVal     (hash, TypeXattrVal,    ino)      attribute value bucket
//	TypeLinkBackref  (ino,  TypeLinkBackref, ordinal)  hard-link backref
package model

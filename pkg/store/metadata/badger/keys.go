package badger

import (
	"encoding/binary"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// records into logical namespaces. IDs are encoded as 8-byte big-endian
// integers so that a prefix scan returns entries in ascending ID order,
// which is the insertion order every listing must follow.
//
// Key Namespace Prefixes:
//
// Data Type            Prefix    Key Format                      Value Type
// ===========================================================================
// Directory            "d:"      d:<id>                          directoryData (JSON)
// File                 "f:"      f:<id>                          fileData (JSON)
// Child directory      "cd:"     cd:<parentID>:<childID>         empty
// Child file           "cf:"     cf:<directoryID>:<fileID>       empty
// Directory sequence   "seq:"    seq:dir                         badger.Sequence
// File sequence        "seq:"    seq:file                        badger.Sequence
//
// The child indexes are denormalized: one key per child rather than one
// list per directory, so adding or removing a child never rewrites a
// sibling's entry and listing a directory is a single prefix scan.
//
// Root directories have no child index entry; ListDirectories scans "d:".

const (
	prefixDirectory = "d:"
	prefixFile      = "f:"
	prefixChildDir  = "cd:"
	prefixChildFile = "cf:"

	keyDirectorySequence = "seq:dir"
	keyFileSequence      = "seq:file"
)

func appendID(b []byte, id uint64) []byte {
	return binary.BigEndian.AppendUint64(b, id)
}

func keyDirectory(id uint64) []byte {
	return appendID([]byte(prefixDirectory), id)
}

func keyFile(id uint64) []byte {
	return appendID([]byte(prefixFile), id)
}

func keyChildDirPrefix(parentID uint64) []byte {
	return append(appendID([]byte(prefixChildDir), parentID), ':')
}

func keyChildDir(parentID, childID uint64) []byte {
	return appendID(keyChildDirPrefix(parentID), childID)
}

func keyChildFilePrefix(dirID uint64) []byte {
	return append(appendID([]byte(prefixChildFile), dirID), ':')
}

func keyChildFile(dirID, fileID uint64) []byte {
	return appendID(keyChildFilePrefix(dirID), fileID)
}

// childIDFromKey extracts the trailing child ID from a child index key.
func childIDFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

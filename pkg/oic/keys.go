package oic

import (
	"encoding/binary"
	"strings"
)

// KV key prefixes. Each entity gets its own leading byte so that a single
// flat bucket can still support cheap prefix scans per entity.
const (
	prefixName        byte = 0x01
	prefixToken       byte = 0x02
	prefixBalance     byte = 0x03
	prefixInscription byte = 0x04
)

// NamePrefix is the key prefix of every name record. NamesByOwner scans
// it; it is exported so callers outside the package that need raw prefix
// iteration don't need to know the byte layout.
var NamePrefix = []byte{prefixName}

func cacheKey(namespace, name string) string {
	return namespace + ":" + name
}

// nameKey builds the KV key for a (namespace, name) pair. Both must
// already be normalized (lowercased) by the caller.
func nameKey(namespace, name string) []byte {
	b := make([]byte, 0, 1+len(namespace)+1+len(name))
	b = append(b, prefixName)
	b = append(b, namespace...)
	b = append(b, ':')
	b = append(b, name...)
	return b
}

func tokenKey(ticker string) []byte {
	b := make([]byte, 0, 1+len(ticker))
	b = append(b, prefixToken)
	b = append(b, ticker...)
	return b
}

// balanceKey uses the holder's raw public key, not its base58 form, so
// that every balance for one holder sorts together regardless of ticker.
func balanceKey(pubKey []byte, ticker string) []byte {
	b := make([]byte, 0, 1+len(pubKey)+len(ticker))
	b = append(b, prefixBalance)
	b = append(b, pubKey...)
	b = append(b, ticker...)
	return b
}

func inscriptionMetaKey(poolSeq int64, txIndex uint32) []byte {
	b := make([]byte, 17)
	b[0] = prefixInscription
	binary.BigEndian.PutUint64(b[1:9], uint64(poolSeq))
	binary.BigEndian.PutUint64(b[9:17], uint64(txIndex))
	return b
}

func normalize(s string) string {
	return strings.ToLower(s)
}

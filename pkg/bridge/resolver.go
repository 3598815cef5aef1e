package bridge

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Base58Resolver implements oic.AddressResolver over plain base58 wire
// addresses: decoding one yields its raw public-key bytes directly, with no
// checksum or version byte to strip. A richer resolver handling versioned
// or checksummed address formats belongs to the wallet/address subsystem,
// which this index only consumes through this interface.
type Base58Resolver struct{}

// PublicKeyOf decodes a base58 wire address into its raw public-key bytes.
func (Base58Resolver) PublicKeyOf(address string) ([]byte, error) {
	if address == "" {
		return nil, fmt.Errorf("bridge: empty address")
	}
	pub, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("bridge: decode address %q: %w", address, err)
	}
	return pub, nil
}

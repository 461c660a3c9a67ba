// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import "github.com/costa-wang/substrate-digest/common"

// Config defines a set of configuration options for customizing the MPT
// implementation. The node layout is fixed; configurations only differ in
// the hashing algorithm used for addressing nodes and computing roots.
type Config struct {
	// A descriptive name for this configuration. It has no effect except for
	// logging and debugging purposes.
	Name string

	// The hashing algorithm to be used in the MPT implementation. If nil,
	// BLAKE2b-256 is used.
	Hashing common.Hasher
}

// SubstrateConfig hashes nodes using BLAKE2b-256, producing roots compatible
// with Substrate's storage tries.
var SubstrateConfig = Config{
	Name:    "Substrate",
	Hashing: common.Blake2b256,
}

// KeccakConfig hashes nodes using Keccak-256.
var KeccakConfig = Config{
	Name:    "Keccak",
	Hashing: common.Keccak256,
}

var allMptConfigs = []Config{SubstrateConfig, KeccakConfig}

// GetConfigByName attempts to locate a configuration with the given name.
func GetConfigByName(name string) (Config, bool) {
	for _, config := range allMptConfigs {
		if config.Name == name {
			return config, true
		}
	}
	return Config{}, false
}

// GetConfigNames lists the names of all predefined configurations.
func GetConfigNames() []string {
	res := make([]string, 0, len(allMptConfigs))
	for _, config := range allMptConfigs {
		res = append(res, config.Name)
	}
	return res
}

// Hasher returns the hasher of this configuration, BLAKE2b-256 if none is
// set.
func (c Config) Hasher() common.Hasher {
	if c.Hashing == nil {
		return common.Blake2b256
	}
	return c.Hashing
}

// EmptyRoot returns the root hash of an empty trie under this configuration.
func (c Config) EmptyRoot() common.Hash {
	return EmptyRootHash(c.Hasher())
}

func (c Config) String() string {
	return c.Name + "(" + c.Hasher().Name() + ")"
}

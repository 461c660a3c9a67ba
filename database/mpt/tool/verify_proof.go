// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"strings"

	"github.com/costa-wang/substrate-digest/database/mpt"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var VerifyProof = cli.Command{
	Action:    verifyProof,
	Name:      "verify-proof",
	Usage:     "verifies a proof against a root without access to the trie",
	ArgsUsage: "<root> <proof> <key>=<value|absent>...",
	Flags: []cli.Flag{
		&hashingFlag,
	},
}

func verifyProof(context *cli.Context) error {
	if context.Args().Len() < 3 {
		return fmt.Errorf("missing root, proof, and/or claims to be verified")
	}
	config, err := getConfig(context)
	if err != nil {
		return err
	}
	root, err := parseHash(context.Args().Get(0))
	if err != nil {
		return err
	}
	encoded, err := hexutil.Decode(context.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid proof: %w", err)
	}
	proof, err := mpt.DecodeProof(encoded)
	if err != nil {
		return err
	}
	items := []mpt.ProofItem{}
	for _, arg := range context.Args().Slice()[2:] {
		item, err := parseClaim(arg)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	if err := mpt.VerifyProof(config, root, proof, items); err != nil {
		return err
	}
	fmt.Println("Proof is valid")
	return nil
}

func parseClaim(claim string) (mpt.ProofItem, error) {
	key, value, found := strings.Cut(claim, "=")
	if !found {
		return mpt.ProofItem{}, fmt.Errorf("invalid claim %q, expected <key>=<value|absent>", claim)
	}
	res := mpt.ProofItem{}
	var err error
	if res.Key, err = hexutil.Decode(key); err != nil {
		return res, fmt.Errorf("invalid key in claim %q: %w", claim, err)
	}
	if value == "absent" {
		return res, nil
	}
	if res.Value, err = hexutil.Decode(value); err != nil {
		return res, fmt.Errorf("invalid value in claim %q: %w", claim, err)
	}
	if len(res.Value) == 0 {
		return res, fmt.Errorf("invalid claim %q, values must not be empty", claim)
	}
	return res, nil
}

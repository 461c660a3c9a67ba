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
	"errors"
	"fmt"

	"github.com/costa-wang/substrate-digest/database/mpt"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var Prove = cli.Command{
	Action:    prove,
	Name:      "prove",
	Usage:     "creates a proof for the presence or absence of the given keys",
	ArgsUsage: "<directory> <key>...",
	Flags: []cli.Flag{
		&hashingFlag,
		&rootFlag,
		&printProofFlag,
	},
}

var printProofFlag = cli.BoolFlag{
	Name:  "print",
	Usage: "print the decoded nodes of the proof",
}

func prove(context *cli.Context) (err error) {
	if context.Args().Len() < 2 {
		return fmt.Errorf("missing directory and/or keys to be proven")
	}
	keys := [][]byte{}
	for _, arg := range context.Args().Slice()[1:] {
		key, err := hexutil.Decode(arg)
		if err != nil {
			return fmt.Errorf("invalid key %q: %w", arg, err)
		}
		keys = append(keys, key)
	}

	store, config, root, err := openStore(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	proof, err := mpt.GenerateProof(store, config, root, keys)
	if err != nil {
		return err
	}
	fmt.Printf("root:  %v\n", root)
	for _, key := range keys {
		value, found, err := mpt.Lookup(store, config, root, key)
		if err != nil {
			return err
		}
		fmt.Printf("claim: %v\n", mpt.ProofItem{Key: key, Value: valueOrNil(value, found)})
	}
	fmt.Printf("proof: %s\n", hexutil.Encode(mpt.EncodeProof(proof)))
	if context.Bool(printProofFlag.Name) {
		fmt.Print(mpt.FormatProof(config.Hasher(), proof))
	}
	return nil
}

func valueOrNil(value []byte, found bool) []byte {
	if !found {
		return nil
	}
	return value
}

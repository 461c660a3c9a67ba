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

	"github.com/costa-wang/substrate-digest/common/interrupt"
	"github.com/costa-wang/substrate-digest/database/mpt/proof"
	"github.com/urfave/cli/v2"
)

var Verify = cli.Command{
	Action:    addCpuProfiling(verify),
	Name:      "verify",
	Usage:     "verifies that proofs for all keys of a trie, and for random absent keys, are valid",
	ArgsUsage: "<directory>",
	Flags: []cli.Flag{
		&cpuProfileFlag,
		&hashingFlag,
		&rootFlag,
	},
}

func verify(context *cli.Context) (err error) {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing directory storing the trie")
	}
	store, config, root, err := openStore(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	ctx, stop := interrupt.Register(context.Context)
	defer stop()
	return proof.VerifyTrie(ctx, store, config, root, &verificationObserver{})
}

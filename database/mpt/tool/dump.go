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
	"os"

	mptIo "github.com/costa-wang/substrate-digest/database/mpt/io"
	"github.com/urfave/cli/v2"
)

var Dump = cli.Command{
	Action:    dump,
	Name:      "dump",
	Usage:     "lists the key/value pairs of a trie in ascending key order",
	ArgsUsage: "<directory>",
	Flags: []cli.Flag{
		&hashingFlag,
		&rootFlag,
	},
}

func dump(context *cli.Context) (err error) {
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
	return mptIo.DumpTrie(store, config, root, os.Stdout)
}

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
	"github.com/urfave/cli/v2"
)

var Info = cli.Command{
	Action:    info,
	Name:      "info",
	Usage:     "prints node statistics of a trie and the memory usage of the store",
	ArgsUsage: "<directory>",
	Flags: []cli.Flag{
		&hashingFlag,
		&rootFlag,
	},
}

func info(context *cli.Context) (err error) {
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

	fmt.Printf("Configuration: %v\n", config)
	fmt.Printf("Root: %v\n", root)
	stats, err := mpt.GetTrieNodeStatistics(store, config, root)
	if err != nil {
		return err
	}
	fmt.Print(stats.String())
	fmt.Printf("Memory usage:\n%v", store.GetMemoryFootprint())
	return nil
}

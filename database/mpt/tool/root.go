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

	"github.com/costa-wang/substrate-digest/database/mpt"
	mptIo "github.com/costa-wang/substrate-digest/database/mpt/io"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var Root = cli.Command{
	Action:    addCpuProfiling(computeRoot),
	Name:      "root",
	Usage:     "computes the root hash of the trie containing the pairs listed in a file",
	ArgsUsage: "<pairs-file>",
	Flags: []cli.Flag{
		&cpuProfileFlag,
		&hashingFlag,
		&printEncodingFlag,
	},
}

var printEncodingFlag = cli.BoolFlag{
	Name:  "encoding",
	Usage: "print the encoding of the root node in addition to its hash",
}

func computeRoot(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing file listing key/value pairs")
	}
	config, err := getConfig(context)
	if err != nil {
		return err
	}

	file, err := os.Open(context.Args().Get(0))
	if err != nil {
		return err
	}
	pairs, err := mptIo.ReadPairs(file)
	if err = errors.Join(err, file.Close()); err != nil {
		return err
	}

	res, err := mpt.BuildTrie(config, pairs, nil)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", res.Root)
	if context.Bool(printEncodingFlag.Name) {
		fmt.Printf("%s\n", hexutil.Encode(res.Encoded))
	}
	return nil
}

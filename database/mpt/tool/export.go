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
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/costa-wang/substrate-digest/common/interrupt"
	mptIo "github.com/costa-wang/substrate-digest/database/mpt/io"
	"github.com/urfave/cli/v2"
)

var Export = cli.Command{
	Action:    addCpuProfiling(doExport),
	Name:      "export",
	Usage:     "exports a trie into a snapshot file, gzip compressed if the file name ends with .gz",
	ArgsUsage: "<source directory> <target-file>",
	Flags: []cli.Flag{
		&cpuProfileFlag,
		&hashingFlag,
		&rootFlag,
	},
}

func doExport(context *cli.Context) (err error) {
	if context.Args().Len() != 2 {
		return fmt.Errorf("missing source directory and/or target file parameter")
	}
	dir := context.Args().Get(0)
	trg := context.Args().Get(1)

	store, config, root, err := openStore(context, dir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	logger := mptIo.NewLog()
	logger.Printf("exporting trie %v", root)

	file, err := os.Create(trg)
	if err != nil {
		return err
	}
	writer := bufio.NewWriter(file)
	var out io.Writer = writer
	var zipper *gzip.Writer
	if strings.HasSuffix(trg, ".gz") {
		zipper = gzip.NewWriter(writer)
		out = zipper
	}

	ctx, stop := interrupt.Register(context.Context)
	defer stop()
	count, err := mptIo.Export(ctx, store, config, root, out)
	if zipper != nil {
		err = errors.Join(err, zipper.Close())
	}
	err = errors.Join(err, writer.Flush(), file.Close())
	if err != nil {
		return err
	}
	logger.Printf("exported %d pairs", count)
	return nil
}

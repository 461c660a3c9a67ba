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
	gocontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/costa-wang/substrate-digest/backend/nodestore"
	"github.com/costa-wang/substrate-digest/common/interrupt"
	"github.com/costa-wang/substrate-digest/database/mpt"
	mptIo "github.com/costa-wang/substrate-digest/database/mpt/io"
	"github.com/urfave/cli/v2"
)

var Import = cli.Command{
	Action:    addCpuProfiling(doImport),
	Name:      "import",
	Usage:     "imports a trie into a node store from a pairs file or an exported snapshot",
	ArgsUsage: "<source-file> <target directory>",
	Flags: []cli.Flag{
		&cpuProfileFlag,
		&hashingFlag,
		&formatFlag,
	},
}

var formatFlag = cli.StringFlag{
	Name:  "format",
	Usage: "the format of the source file, either 'text' for key/value pairs or 'snapshot' for exported tries",
	Value: "text",
}

func doImport(context *cli.Context) (err error) {
	if context.Args().Len() != 2 {
		return fmt.Errorf("missing source file and/or target directory parameter")
	}
	src := context.Args().Get(0)
	dir := context.Args().Get(1)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}
	if err := checkEmptyDirectory(dir); err != nil {
		return err
	}

	logger := mptIo.NewLog()
	logger.Print("import started")
	defer func() {
		if err == nil {
			logger.Print("import done")
		}
	}()

	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	in, err := openInput(src, file)
	if err != nil {
		return err
	}

	ctx, stop := interrupt.Register(context.Context)
	defer stop()
	progress := logger.NewImportProgress(1_000_000)

	var config mpt.Config
	var snapshot *mptIo.Snapshot
	switch format := context.String(formatFlag.Name); format {
	case "text":
		if config, err = getConfig(context); err != nil {
			return err
		}
	case "snapshot":
		if snapshot, err = mptIo.OpenSnapshot(in); err != nil {
			return err
		}
		config = snapshot.Config
	default:
		return fmt.Errorf("unknown input format %q", format)
	}

	store, err := nodestore.OpenLevelDb(dir, config.Hasher())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	var res mpt.BuildResult
	if snapshot != nil {
		res, err = snapshot.Import(ctx, store, progress)
	} else {
		res, err = importPairs(ctx, in, config, store, progress)
	}
	if err != nil {
		return err
	}
	if err := store.SetRoot(headRoot, res.Root); err != nil {
		return err
	}
	progress.Finish(res)
	return nil
}

func importPairs(ctx gocontext.Context, in io.Reader, config mpt.Config, sink mpt.NodeWriter, progress *mptIo.ImportProgress) (mpt.BuildResult, error) {
	pairs, err := mptIo.ReadPairs(in)
	if err != nil {
		return mpt.BuildResult{}, err
	}
	builder := mpt.NewRootBuilder(config, progress.Sink(sink))
	for i, pair := range mpt.SortPairs(pairs) {
		if i%1000 == 0 && interrupt.IsCancelled(ctx) {
			return mpt.BuildResult{}, interrupt.ErrCanceled
		}
		if err := builder.Add(pair.Key, pair.Value); err != nil {
			return mpt.BuildResult{}, err
		}
		progress.AddPair()
	}
	return builder.Finish()
}

// openInput decompresses gzip files, identified by their extension.
func openInput(name string, file io.Reader) (io.Reader, error) {
	in := bufio.NewReader(file)
	if strings.HasSuffix(name, ".gz") {
		return gzip.NewReader(in)
	}
	return in, nil
}

func checkEmptyDirectory(directory string) error {
	file, err := os.Open(directory)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", directory, err)
	}
	defer file.Close()
	state, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to open file information for %s: %w", directory, err)
	}
	if !state.IsDir() {
		return fmt.Errorf("the path `%s` does not point to a directory", directory)
	}
	_, err = file.Readdirnames(1)
	if err == nil {
		return fmt.Errorf("directory `%s` is not empty", directory)
	}
	if !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to list content of directory `%s`: %w", directory, err)
	}
	return nil
}

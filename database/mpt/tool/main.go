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
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/costa-wang/substrate-digest/backend/nodestore"
	"github.com/costa-wang/substrate-digest/common"
	"github.com/costa-wang/substrate-digest/database/mpt"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./database/mpt/tool <command> <flags>

// headRoot is the name under which the root of the most recent import is
// recorded in a node store.
const headRoot = "head"

var (
	diagnosticsFlag = cli.IntFlag{
		Name:  "diagnostic-port",
		Usage: "enable hosting of a realtime diagnostic server by providing a port",
		Value: 0,
	}
	cpuProfileFlag = cli.StringFlag{
		Name:  "cpuprofile",
		Usage: "sets the target file for storing CPU profiles to, disabled if empty",
		Value: "",
	}
	hashingFlag = cli.StringFlag{
		Name:  "hashing",
		Usage: fmt.Sprintf("the hashing configuration of the trie, one of %s", strings.Join(mpt.GetConfigNames(), ", ")),
		Value: mpt.SubstrateConfig.Name,
	}
	rootFlag = cli.StringFlag{
		Name:  "root",
		Usage: "the root hash of the trie, defaults to the root of the last import",
		Value: "",
	}
)

func main() {
	app := &cli.App{
		Name:      "tool",
		Usage:     "Substrate MPT toolbox",
		Copyright: "(c) 2024 Fantom Foundation",
		Flags: []cli.Flag{
			&diagnosticsFlag,
		},
		Before: func(context *cli.Context) error {
			startDiagnosticServer(context.Int(diagnosticsFlag.Name))
			return nil
		},
		Commands: []*cli.Command{
			&Root,
			&Import,
			&Export,
			&Dump,
			&Prove,
			&VerifyProof,
			&Check,
			&Verify,
			&Info,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addCpuProfiling wraps the given action into one recording a CPU profile
// if requested by the cpuprofile flag.
func addCpuProfiling(action cli.ActionFunc) cli.ActionFunc {
	return func(context *cli.Context) error {
		cpuProfileFileName := context.String(cpuProfileFlag.Name)
		if strings.TrimSpace(cpuProfileFileName) != "" {
			if err := startCpuProfiler(cpuProfileFileName); err != nil {
				return err
			}
			defer stopCpuProfiler()
		}
		return action(context)
	}
}

func startDiagnosticServer(port int) {
	if port <= 0 || port >= (1<<16) {
		return
	}
	fmt.Printf("Starting diagnostic server at port http://localhost:%d\n", port)
	fmt.Printf("(see https://pkg.go.dev/net/http/pprof#hdr-Usage_examples for usage examples)\n")
	fmt.Printf("Block and mutex sampling rate is set to 100%% for diagnostics, which may impact overall performance\n")
	go func() {
		addr := fmt.Sprintf("localhost:%d", port)
		log.Println(http.ListenAndServe(addr, nil))
	}()
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)
}

func startCpuProfiler(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func stopCpuProfiler() {
	pprof.StopCPUProfile()
}

func getConfig(context *cli.Context) (mpt.Config, error) {
	name := context.String(hashingFlag.Name)
	config, found := mpt.GetConfigByName(name)
	if !found {
		return mpt.Config{}, fmt.Errorf("unknown hashing configuration %q, supported: %s", name, strings.Join(mpt.GetConfigNames(), ", "))
	}
	return config, nil
}

// openStore opens the node store in the given directory and resolves the
// root of the trie to operate on.
func openStore(context *cli.Context, dir string) (*nodestore.LevelDb, mpt.Config, common.Hash, error) {
	config, err := getConfig(context)
	if err != nil {
		return nil, config, common.Hash{}, err
	}
	if stat, err := os.Stat(dir); err != nil {
		return nil, config, common.Hash{}, fmt.Errorf("no such directory: %v", dir)
	} else if !stat.IsDir() {
		return nil, config, common.Hash{}, fmt.Errorf("%v is not a directory", dir)
	}
	store, err := nodestore.OpenLevelDb(dir, config.Hasher())
	if err != nil {
		return nil, config, common.Hash{}, err
	}
	root, err := getRoot(context, store)
	if err != nil {
		store.Close()
		return nil, config, common.Hash{}, err
	}
	return store, config, root, nil
}

func getRoot(context *cli.Context, store *nodestore.LevelDb) (common.Hash, error) {
	if context.IsSet(rootFlag.Name) {
		return parseHash(context.String(rootFlag.Name))
	}
	root, found, err := store.GetRoot(headRoot)
	if err != nil {
		return common.Hash{}, err
	}
	if !found {
		return common.Hash{}, fmt.Errorf("no root recorded in store, use --%s to select a trie", rootFlag.Name)
	}
	return root, nil
}

func parseHash(s string) (common.Hash, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return common.HashFromBytes(data)
}

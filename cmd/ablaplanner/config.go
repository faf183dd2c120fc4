package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/utxocore/infrastructure/config"
	"github.com/pkg/errors"
)

const (
	defaultBlocks = 144
	defaultStep   = 12
)

type configFlags struct {
	Blocks            uint64 `short:"n" long:"blocks" description:"Number of blocks to plan ahead"`
	Step              uint64 `long:"step" description:"Print one line every this many blocks"`
	BlockSize         uint64 `long:"blocksize" description:"Size of every planned block -- 0 plans maximally sized blocks"`
	ControlBlockSize  uint64 `long:"controlsize" description:"Control block size of the starting state -- 0 starts from the network's initial state"`
	ElasticBufferSize uint64 `long:"elasticsize" description:"Elastic buffer size of the starting state -- 0 starts from the network's initial state"`
	Dump              bool   `long:"dump" description:"Dump the configuration and the final state"`
	config.NetworkFlags
}

func parseConfig(args []string) (*configFlags, error) {
	cfg := &configFlags{
		Blocks: defaultBlocks,
		Step:   defaultStep,
	}
	parser := flags.NewParser(cfg, flags.HelpFlag)
	_, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	if cfg.Step == 0 {
		return nil, errors.New("--step must be positive")
	}
	if (cfg.ControlBlockSize == 0) != (cfg.ElasticBufferSize == 0) {
		return nil, errors.New("--controlsize and --elasticsize must be given together")
	}
	if cfg.NetParams().ABLAConfig == nil {
		return nil, errors.Errorf("network %s has no adaptive block size limit", cfg.NetParams().Name)
	}
	return cfg, nil
}

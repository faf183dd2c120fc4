package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}

	ablaConfig := cfg.NetParams().ABLAConfig
	start := abla.NewState(ablaConfig, 0)
	if cfg.ControlBlockSize != 0 {
		start.ControlBlockSize = cfg.ControlBlockSize
		start.ElasticBufferSize = cfg.ElasticBufferSize
	}

	steps, err := plan(ablaConfig, start, cfg.Blocks, cfg.Step, cfg.BlockSize)
	if err != nil {
		printErrorAndExit(err.Error())
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(writer, "blocks\tcontrol size\telastic buffer\tlimit\t")
	for _, step := range steps {
		fmt.Fprintf(writer, "%d\t%d\t%d\t%d\t\n", step.Offset, step.State.ControlBlockSize,
			step.State.ElasticBufferSize, step.State.Limit())
	}
	writer.Flush()

	if cfg.Dump {
		spew.Fdump(os.Stdout, ablaConfig, steps[len(steps)-1].State)
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}

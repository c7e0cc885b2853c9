// Package main provides the depthconv command line tool.
//
// Usage:
//
//	depthconv version
//	depthconv forward -image rgb.png -disparity disp.png [-config layer.yaml] [-out out.png]
//	depthconv verify [-config layer.yaml]
//	depthconv bench [-config layer.yaml] [-iters 50] [-batch 4] [-size 128]
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0"

type command struct {
	name, help string
	run        func(args []string) error
}

var commands = []command{
	{"version", "Show version", func([]string) error {
		fmt.Printf("depthconv %s\n", version)
		return nil
	}},
	{"forward", "Run one depth-aware convolution over an image and its disparity map", runForward},
	{"verify", "Cross-check the engine against the plain convolution backend", runVerify},
	{"bench", "Time forward and backward passes on random operands", runBench},
}

func usage() {
	fmt.Println("depthconv - depth-aware convolution for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	for _, c := range commands {
		fmt.Printf("  %-10s %s\n", c.name, c.help)
	}
	fmt.Println("\nRun 'depthconv <command> -help' for the flags of a command.")
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}
	for _, c := range commands {
		if c.name == args[0] {
			if err := c.run(args[1:]); err != nil {
				klog.Exitf("depthconv %s: %+v", c.name, err)
			}
			return
		}
	}
	klog.Errorf("Unknown command %q. See 'depthconv -help'.", args[0])
	os.Exit(1)
}

// newFlagSet returns a flag set for a subcommand with the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	config := fs.String("config", "", "YAML layer config. Defaults apply to fields it leaves out.")
	return fs, config
}

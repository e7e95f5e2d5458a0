package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	cli := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	var err error
	switch args[0] {
	case "validate":
		err = cli.validateCommand(args[1:])
	case "schema":
		err = cli.schemaCommand(args[1:])
	case "encode":
		err = cli.encodeCommand(args[1:])
	case "decode":
		err = cli.decodeCommand(args[1:])
	case "init":
		err = cli.initCommand(args[1:])
	case "version":
		cli.versionCommand()
	case "-h", "-help", "help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: bier <command> [options]\n")
	fmt.Fprintf(w, "\nCommands:\n")
	fmt.Fprintf(w, "  validate  Check bier struct tags in Go source files\n")
	fmt.Fprintf(w, "  schema    Compile a YAML schema and print record fingerprints\n")
	fmt.Fprintf(w, "  encode    Encode a YAML value as a schema record\n")
	fmt.Fprintf(w, "  decode    Decode a schema record and print it as YAML\n")
	fmt.Fprintf(w, "  init      Write a default configuration file\n")
	fmt.Fprintf(w, "  version   Show version information\n")
	fmt.Fprintf(w, "\nRun 'bier <command> -h' for help on a specific command.\n")
}

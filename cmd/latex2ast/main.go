// cmd/latex2ast/main.go — command-line front end
//
// Reads a LaTeX expression from the arguments or stdin and prints
// the AST (and steps, in semantic mode) as JSON. Output is indented
// on a terminal and compact when piped.
//
// Usage:
//   latex2ast '1+2'
//   echo '\frac{1}{2}' | latex2ast -steps 3
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/mattn/go-isatty"

	ocrserver "github.com/TDE144/ocr-server"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("latex2ast: ")

	steps := flag.Int("steps", ocrserver.AllSteps, "maximum steps to report (-1 = all, 0 = none)")
	compact := flag.Bool("compact", false, "always print compact JSON")
	debugDump := flag.Bool("debug", false, "dump the result as a Go value to stderr")
	flag.Parse()

	input, err := readInput()
	if err != nil {
		log.Fatal(err)
	}
	if input == "" {
		log.Fatal("no input: pass a LaTeX expression as an argument or on stdin")
	}

	res, err := ocrserver.Process(input, *steps)
	if err != nil {
		log.Fatal(err)
	}

	if *debugDump {
		repr.New(os.Stderr, repr.Indent("  ")).Println(res)
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact && isatty.IsTerminal(os.Stdout.Fd()) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		log.Fatal(err)
	}
}

func readInput() (string, error) {
	if flag.NArg() > 0 {
		return strings.TrimSpace(strings.Join(flag.Args(), " ")), nil
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Command rpn evaluates RPN expressions from its arguments or, when none are
// given, from standard input one expression per line.
//
//	$ rpn "5 1 2 + 4 * + 3 -"
//	14
//	$ echo "2 0 /" | rpn
//	error: division_by_zero: division by zero: 2 / 0 at token 2
//
// Expressions starting with a negative number must follow "--" so they are not
// read as flags.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aescanero/dago-node-rpn/internal/eval/rpn"
	"go.uber.org/zap"
)

// maxLineSize bounds a single expression read from standard input
const maxLineSize = 64 << 20

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rpn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log evaluation timings to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if l, err := cfg.Build(); err == nil {
			logger = l
		}
	}
	defer func() { _ = logger.Sync() }()

	failed := false
	evaluate := func(expression string) {
		start := time.Now()
		value, err := rpn.Evaluate(expression)
		logger.Debug("evaluated",
			zap.Int("tokens", rpn.CountTokens(expression)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		if err != nil {
			failed = true
			fmt.Fprintf(stdout, "error: %s: %v\n", rpn.KindOf(err), err)
			return
		}
		fmt.Fprintln(stdout, strconv.FormatFloat(value, 'g', -1, 64))
	}

	if fs.NArg() > 0 {
		for _, expression := range fs.Args() {
			evaluate(expression)
		}
	} else {
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			evaluate(strings.TrimSuffix(scanner.Text(), "\r"))
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(stderr, "failed to read input: %v\n", err)
			return 1
		}
	}

	if failed {
		return 1
	}
	return 0
}

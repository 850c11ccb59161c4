// Command exprcheck parses a single textual constraint (spec §6's
// grammar), simplifies and propagates it against a variable table
// supplied on the command line, and reports the resulting variable
// bounds. Grounded on the teacher's cmd/example/main.go: a thin,
// stdlib-flag-driven CLI over the library, not itself part of the
// handler core. A heavier flag library (cobra/pflag) is not wired here —
// this is the one CLI surface in scope, and flag covers it; see
// DESIGN.md.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/JasperNL/scip-unified-sub005/pkg/expr"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/nlhandlers"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/ophandlers"
	"github.com/JasperNL/scip-unified-sub005/pkg/expr/parse"
)

func main() {
	var (
		file    = flag.String("f", "", "read the constraint from this file instead of stdin")
		varsArg = flag.String("vars", "", "comma-separated var=lo:hi[:int] bound declarations, e.g. x=0:10,y=-5:5:int")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	src, err := readSource(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "exprcheck:", err)
		os.Exit(1)
	}

	vars, err := parseVarSpecs(*varsArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "exprcheck:", err)
		os.Exit(1)
	}

	if err := run(src, vars, logrus.NewEntry(log)); err != nil {
		fmt.Fprintln(os.Stderr, "exprcheck:", err)
		os.Exit(1)
	}
}

func readSource(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return "", fmt.Errorf("reading constraint: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func run(src string, vars map[string]*cliVar, log *logrus.Entry) error {
	cfg := expr.DefaultConfig()
	ctx := expr.NewContext(cfg)
	ctx.Log = log

	ops := ophandlers.NewHandlers()
	if err := ops.RegisterAll(ctx.Handlers); err != nil {
		return fmt.Errorf("registering operator handlers: %w", err)
	}
	nls := nlhandlers.NewHandlers()
	if err := nls.RegisterAll(ctx.NLHandlers); err != nil {
		return fmt.Errorf("registering nonlinear handlers: %w", err)
	}
	varHandler := ops.Var

	host := newCLIHost(vars)
	resolve := func(name string) (expr.HostVar, error) {
		v, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("undeclared variable <%s> (pass -vars %s=lo:hi)", name, name)
		}
		return v, nil
	}

	result, err := parse.ParseConstraint(src, ops, varHandler, resolve)
	if err != nil {
		return fmt.Errorf("parsing constraint: %w", err)
	}

	cons := expr.NewConstraint("cli", result.Root, result.Lhs, result.Rhs)
	cons.SetVarLeaves(collectVarLeaves(result.Root, varHandler))

	fmt.Println("parsed:", printTree(result.Root))
	fmt.Printf("sides: [%s, %s]\n", formatBound(result.Lhs), formatBound(result.Rhs))

	if err := expr.Canonicalize(ctx, host, []*expr.Constraint{cons}, ophandlers.VarHandlerName, true); err != nil {
		return fmt.Errorf("canonicalizing: %w", err)
	}
	fmt.Println("simplified:", printTree(cons.Root))

	if err := expr.PrepareEnforcement(ctx, host, cons, ophandlers.VarHandlerName); err != nil {
		return fmt.Errorf("preparing enforcement: %w", err)
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("resulting bounds:")
	for _, name := range names {
		v := vars[name]
		fmt.Printf("  %s: [%s, %s]\n", name, formatBound(v.lo), formatBound(v.hi))
	}
	return nil
}

func collectVarLeaves(root *expr.Node, varHandler *expr.ExprHandler) []*expr.Node {
	var out []*expr.Node
	var walk func(n *expr.Node)
	walk = func(n *expr.Node) {
		if n.Handler() == varHandler {
			out = append(out, n)
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	return out
}

func printTree(n *expr.Node) string {
	childStrings := make([]string, n.Arity())
	for i, c := range n.Children() {
		childStrings[i] = printTree(c)
	}
	if n.Handler().Print != nil {
		return n.Handler().Print(n, childStrings)
	}
	return n.Handler().Name
}

func formatBound(v float64) string {
	if math.IsInf(v, -1) {
		return "-inf"
	}
	if math.IsInf(v, 1) {
		return "+inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseVarSpecs parses "x=0:10,y=-5:5:int" into a name-keyed variable
// table.
func parseVarSpecs(s string) (map[string]*cliVar, error) {
	out := make(map[string]*cliVar)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nameBounds := strings.SplitN(part, "=", 2)
		if len(nameBounds) != 2 {
			return nil, fmt.Errorf("malformed var spec %q (want name=lo:hi[:int])", part)
		}
		name := strings.TrimSpace(nameBounds[0])
		fields := strings.Split(nameBounds[1], ":")
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed var spec %q (want name=lo:hi[:int])", part)
		}
		lo, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("var %s: bad lower bound: %w", name, err)
		}
		hi, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("var %s: bad upper bound: %w", name, err)
		}
		integer := len(fields) >= 3 && fields[2] == "int"
		out[name] = &cliVar{name: name, lo: lo, hi: hi, integer: integer, id: len(out)}
	}
	return out, nil
}

// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/marcelocantos/rulemk"
	"github.com/marcelocantos/rulemk/logx"
	"github.com/marcelocantos/rulemk/script"
)

func main() {
	var (
		file       = flag.String("f", "rulefile", "rulefile to read")
		verbose    = flag.Bool("v", false, "verbose output")
		alwaysMake = flag.Bool("B", false, "unconditional rebuild")
		jobs       = flag.Int("j", 1, "parallel jobs (1=sequential)")
		autodeps   = flag.Bool("autodeps", false, "discover C/C++ header deps via cc -MM")
	)
	flag.Parse()

	if err := run(*file, *verbose, *alwaysMake, *autodeps, *jobs, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "rulemk: %s\n", err)
		os.Exit(1)
	}
}

func run(file string, verbose, alwaysMake, autodeps bool, jobs int, args []string) error {
	log := logx.New()
	if verbose {
		log.SetLevel(charmlog.DebugLevel)
	}

	env := rulemk.NewEnv(map[string]rulemk.Value{
		"CC":     "cc",
		"CXX":    "c++",
		"CFLAGS": []string{},
	})

	var targets []string
	for _, arg := range args {
		if name, value, ok := strings.Cut(arg, "="); ok {
			env.Set(name, value)
			continue
		}
		targets = append(targets, arg)
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets specified")
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", file, err)
	}
	defer f.Close()

	ctx := rulemk.NewContext(env)
	if err := script.LoadWithOptions(f, ctx, script.Options{AutoHeaderDeps: autodeps}); err != nil {
		return err
	}
	table := ctx.Table()

	for _, target := range targets {
		m, err := rulemk.Resolve(target, table, ctx.GetEnv())
		if err != nil {
			return err
		}
		if jobs > 1 {
			err = rulemk.ExecuteParallel(target, m, jobs, alwaysMake, rulemk.WithLogger(log))
		} else {
			err = rulemk.Execute(target, m, alwaysMake, rulemk.WithLogger(log))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

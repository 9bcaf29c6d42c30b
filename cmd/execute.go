// Package cmd is the top-level driver for streamc: it parses command-line
// arguments, loads build profiles and runs code generation over the programs
// it is given.
package cmd

import (
	"os"
	"path/filepath"
	"strconv"

	"streamc/astload"
	"streamc/report"

	"github.com/ComedicChimera/olive"
)

// Version is the current streamc version.
const Version = "0.3.0"

// Execute is the main entry point for the `streamc` CLI utility.  It returns
// the process exit code.
func Execute() int {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("streamc", "streamc lowers stream programs to LLVM IR", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})

	buildCmd := cli.AddSubcommand("build", "generate modules for stream programs", true)
	buildCmd.AddPrimaryArg("input-path", "the program file or directory of program files to build", true)
	buildCmd.AddStringArg("profile", "p", "the path to the build profile", false)
	buildCmd.AddStringArg("target", "t", "the code generation target: cpu or hls", false)
	buildCmd.AddStringArg("output", "o", "the directory to write modules to", false)
	buildCmd.AddFlag("no-verify", "nv", "skip verification of the generated modules")

	runCmd := cli.AddSubcommand("run", "interpret a filter of a stream program", true)
	runCmd.AddPrimaryArg("input-path", "the program file containing the filter", true)
	runCmd.AddStringArg("filter", "f", "the name of the filter to run", false)
	runCmd.AddStringArg("input", "i", "the path to a file holding the filter's input values", false)
	runCmd.AddStringArg("iterations", "n", "the number of times to run the work function", false)
	runCmd.AddStringArg("target", "t", "the code generation target: cpu or hls", false)

	cli.AddSubcommand("version", "print the streamc version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	loglevel := ""
	if ll, ok := result.Arguments["loglevel"]; ok {
		loglevel = ll.(string)
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		if !execBuildCommand(subResult, loglevel) {
			return 1
		}
	case "run":
		if !execRunCommand(subResult, loglevel) {
			return 1
		}
	case "version":
		report.DisplayInfoMessage("streamc version", Version)
	}

	return 0
}

// stringArg returns the value of an optional string argument.
func stringArg(result *olive.ArgParseResult, name string) string {
	if v, ok := result.Arguments[name]; ok {
		return v.(string)
	}

	return ""
}

// execBuildCommand executes the build subcommand.  It returns whether every
// program built successfully.
func execBuildCommand(result *olive.ArgParseResult, loglevel string) (ok bool) {
	inputPath, _ := result.PrimaryArg()

	// select the build profile: an explicit profile, the profile in the input
	// directory, or the defaults
	profilePath := stringArg(result, "profile")
	if profilePath == "" {
		if finfo, err := os.Stat(inputPath); err == nil && finfo.IsDir() {
			if _, err := os.Stat(filepath.Join(inputPath, ProfileFileName)); err == nil {
				profilePath = filepath.Join(inputPath, ProfileFileName)
			}
		}
	}

	profile := DefaultProfile()
	if profilePath != "" {
		var err error
		if profile, err = LoadProfile(profilePath); err != nil {
			report.ReportFatal("failed to load build profile: %s", err)
		}
	}

	// command line options override the profile
	if err := profile.apply(stringArg(result, "target"), stringArg(result, "output"), loglevel); err != nil {
		report.ReportFatal("%s", err)
	}

	if result.HasFlag("no-verify") {
		profile.Verify = false
	}

	report.InitReporter(profile.LogLevel)

	c, err := NewCompiler([]string{inputPath}, profile)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	ok = true
	defer report.CatchErrors(inputPath, &ok)

	return c.Build()
}

// execRunCommand executes the run subcommand.  It returns whether the filter
// ran to completion.
func execRunCommand(result *olive.ArgParseResult, loglevel string) (ok bool) {
	profile := DefaultProfile()
	if err := profile.apply(stringArg(result, "target"), "", loglevel); err != nil {
		report.ReportFatal("%s", err)
	}

	report.InitReporter(profile.LogLevel)

	inputPath, _ := result.PrimaryArg()
	prog, err := astload.Load(inputPath)
	if err != nil {
		report.ReportFatal("%s: %s", inputPath, err)
	}

	runner, err := NewRunner(prog, stringArg(result, "filter"), profile.Target)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	if iters := stringArg(result, "iterations"); iters != "" {
		n, err := strconv.Atoi(iters)
		if err != nil || n < 0 {
			report.ReportFatal("invalid iteration count `%s`", iters)
		}

		runner.Iterations = n
	}

	var input []interface{}
	if inPath := stringArg(result, "input"); inPath != "" {
		if input, err = LoadInput(inPath); err != nil {
			report.ReportFatal("failed to load input: %s", err)
		}
	}

	ok = true
	defer report.CatchErrors(inputPath, &ok)

	if err := runner.Run(input, os.Stdout); err != nil {
		report.ReportError("%s: %s", inputPath, err)
		return false
	}

	return true
}

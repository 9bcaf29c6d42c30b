package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"streamc/report"

	"github.com/pelletier/go-toml"
)

// ProfileFileName is the name of the build profile looked for in an input
// directory when no profile is given explicitly.
const ProfileFileName = "streamc.toml"

// Enumeration of code generation targets.
const (
	TargetCPU = iota
	TargetHLS
)

// targetNames maps the spellings of the targets to their values.
var targetNames = map[string]int{
	"cpu": TargetCPU,
	"hls": TargetHLS,
}

// BuildProfile represents the current build profile.
type BuildProfile struct {
	// Target must be one of the enumerated targets.
	Target int

	// OutputPath is the directory the generated modules are written to.
	OutputPath string

	// Verify indicates whether generated modules are checked before they are
	// written.
	Verify bool

	LogLevel int
}

// DefaultProfile returns the profile used when no profile file is given.
func DefaultProfile() *BuildProfile {
	return &BuildProfile{
		Target:     TargetCPU,
		OutputPath: ".",
		Verify:     true,
		LogLevel:   report.LogLevelVerbose,
	}
}

// tomlProfileFile represents the profile file as it is encoded in TOML.
type tomlProfileFile struct {
	Build *tomlProfile `toml:"build"`
}

// tomlProfile represents a profile as it is encoded in TOML.  Pointers
// distinguish settings left out of the file.
type tomlProfile struct {
	Target   string `toml:"target"`
	Output   string `toml:"output"`
	Verify   *bool  `toml:"verify"`
	LogLevel string `toml:"loglevel"`
}

// LoadProfile loads the profile file at path over the default profile.
func LoadProfile(path string) (*BuildProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	tpf := &tomlProfileFile{}
	if err := toml.Unmarshal(buff, tpf); err != nil {
		return nil, err
	}

	prof := DefaultProfile()
	if tpf.Build == nil {
		return prof, nil
	}

	if err := prof.apply(tpf.Build.Target, tpf.Build.Output, tpf.Build.LogLevel); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if tpf.Build.Verify != nil {
		prof.Verify = *tpf.Build.Verify
	}

	return prof, nil
}

// apply overrides the profile's settings with those that are non-empty.
func (bp *BuildProfile) apply(target, output, loglevel string) error {
	if target != "" {
		t, ok := targetNames[target]
		if !ok {
			return fmt.Errorf("unknown target `%s`", target)
		}

		bp.Target = t
	}

	if output != "" {
		bp.OutputPath = output
	}

	if loglevel != "" {
		ll, ok := report.LogLevelNames[loglevel]
		if !ok {
			return fmt.Errorf("unknown log level `%s`", loglevel)
		}

		bp.LogLevel = ll
	}

	return nil
}

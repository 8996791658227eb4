// Copyright (c) 2012-2016 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	cmd "github.com/campsite/cmd"
	"github.com/campsite/cmd/model"
)

var cmdVersion = &Command{
	UsageLine: "version",
	Short:     "displays the campsite and Go version",
	Long: `
Displays the campsite and Go version.

For example:

    campsite version
`,
}

func init() {
	cmdVersion.RunWith = versionApp
}

// Displays the version of go and campsite
func versionApp(c *model.CommandConfig) error {
	ok, err := writeVersion(os.Stdout, runtime.Version())
	if err != nil {
		return err
	}
	if c.Version.Check && !ok {
		return fmt.Errorf("%s does not satisfy %s", runtime.Version(), cmd.MinimumGoVersion)
	}
	return nil
}

// writeVersion prints the versions and reports whether goVersion is recent enough.
func writeVersion(w io.Writer, goVersion string) (bool, error) {
	v, err := model.ParseVersion(cmd.Version)
	if err != nil {
		return false, err
	}
	v.BuildDate = cmd.BuildDate
	v.MinGoVersion = cmd.MinimumGoVersion

	fmt.Fprintf(w, "campsite\n%s\n", v)
	fmt.Fprintf(w, "\n   %s %s/%s\n\n", goVersion, runtime.GOOS, runtime.GOARCH)
	ok, err := v.SatisfiesGo(goVersion)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintf(w, "   campsite needs go %s\n", v.MinGoVersion)
	}
	return ok, nil
}

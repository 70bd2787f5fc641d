package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/localization"
)

func TestLocExport(t *testing.T) {
	newTestApp(t)
	saved := locFlags
	defer func() { locFlags = saved }()

	for _, format := range []string{"yaml", "json", "csv"} {
		t.Run(format, func(t *testing.T) {
			locFlags.format = format
			out, err := execute(locExportCmd, exportLocalization)
			if err != nil {
				t.Fatalf("loc-export error = %v", err)
			}
			if !strings.Contains(out, "Does the data identify people?") {
				t.Errorf("export missing question text:\n%s", out)
			}
		})
	}
}

func TestLocExport_Dir(t *testing.T) {
	newTestApp(t)
	saved := locFlags
	defer func() { locFlags = saved }()

	dir := filepath.Join(t.TempDir(), "loc")
	locFlags.dir = dir
	out, err := execute(locExportCmd, exportLocalization)
	if err != nil {
		t.Fatalf("loc-export error = %v", err)
	}
	if !strings.HasPrefix(out, "✓ Wrote ") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, localization.AnswersFile)); err != nil {
		t.Errorf("answers file: %v", err)
	}

	// The directory exists now.
	if _, err := execute(locExportCmd, exportLocalization); err == nil {
		t.Error("second export into the same directory succeeded")
	}
}

func TestLocExport_Flags(t *testing.T) {
	newTestApp(t)
	saved := locFlags
	defer func() { locFlags = saved }()

	locFlags.format = "xml"
	if _, err := execute(locExportCmd, exportLocalization); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("bad format: err = %v, want config error", err)
	}

	locFlags.format = "yaml"
	locFlags.dir = "a"
	locFlags.out = "b"
	if _, err := execute(locExportCmd, exportLocalization); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("--dir with --out: err = %v, want config error", err)
	}
}

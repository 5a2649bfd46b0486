package cli

import (
	"encoding/json"
	"reflect"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/divehq/dive/internal/buildinfo"
	"github.com/divehq/dive/internal/store"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func stubLdflags(t *testing.T, version, commit, date string) {
	t.Helper()
	pv, pc, pd := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit, buildinfo.Date = pv, pc, pd })
	buildinfo.Version, buildinfo.Commit, buildinfo.Date = version, commit, date
}

func vcsBuild(version string, settings ...string) *debug.BuildInfo {
	bi := &debug.BuildInfo{
		GoVersion: "go1.23.4",
		Main:      debug.Module{Path: "github.com/divehq/dive", Version: version},
	}
	for i := 0; i+1 < len(settings); i += 2 {
		bi.Settings = append(bi.Settings, debug.BuildSetting{Key: settings[i], Value: settings[i+1]})
	}
	return bi
}

func TestCurrentVersionInfo(t *testing.T) {
	tests := []struct {
		name    string
		build   *debug.BuildInfo
		ldflags [3]string
		want    versionInfo
	}{
		{
			name: "module build with vcs stamps",
			build: vcsBuild("v1.2.3",
				"vcs.revision", "abc123", "vcs.time", "2026-02-14T17:00:00Z", "vcs.modified", "true",
				"GOOS", "windows", "GOARCH", "amd64"),
			want: versionInfo{
				Version: "v1.2.3", ModulePath: "github.com/divehq/dive", Commit: "abc123",
				BuiltAt: "2026-02-14T17:00:00Z", Dirty: true, GoVersion: "go1.23.4", Platform: "windows/amd64",
			},
		},
		{
			name:  "devel build",
			build: vcsBuild("(devel)", "vcs.revision", "deadbeef"),
			want: versionInfo{
				Version: "devel", ModulePath: "github.com/divehq/dive", Commit: "deadbeef",
				GoVersion: "go1.23.4", Platform: runtime.GOOS + "/" + runtime.GOARCH,
			},
		},
		{
			name:    "ldflags override vcs",
			build:   vcsBuild("(devel)", "vcs.revision", "deadbeef"),
			ldflags: [3]string{"v0.3.0", "cafe", "2026-03-01"},
			want: versionInfo{
				Version: "v0.3.0", ModulePath: "github.com/divehq/dive", Commit: "cafe", BuiltAt: "2026-03-01",
				GoVersion: "go1.23.4", Platform: runtime.GOOS + "/" + runtime.GOARCH,
			},
		},
		{
			name: "no build info",
			want: versionInfo{
				Version: "devel", ModulePath: defaultModulePath,
				GoVersion: runtime.Version(), Platform: runtime.GOOS + "/" + runtime.GOARCH,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubBuildInfo(t, tt.build)
			stubLdflags(t, tt.ldflags[0], tt.ldflags[1], tt.ldflags[2])

			got := currentVersionInfo()
			if got.DBSchema != store.CurrentDBVersion {
				t.Errorf("DBSchema = %d, want %d", got.DBSchema, store.CurrentDBVersion)
			}
			if len(got.Plugins) != 7 {
				t.Errorf("Plugins = %v, want 7 entries", got.Plugins)
			}
			got.DBSchema, got.Plugins = 0, nil
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("currentVersionInfo() =\n  %+v\nwant\n  %+v", got, tt.want)
			}
		})
	}
}

func TestVersionCommandJSONOutput(t *testing.T) {
	stubBuildInfo(t, vcsBuild("v2.0.0", "GOOS", "darwin", "GOARCH", "arm64"))
	stubLdflags(t, "", "", "")
	prevJSON := jsonOutput
	t.Cleanup(func() { jsonOutput = prevJSON })
	jsonOutput = true

	out := captureStdout(t, func() {
		if err := versionCmd.RunE(versionCmd, nil); err != nil {
			t.Fatalf("versionCmd.RunE: %v", err)
		}
	})

	var resp struct {
		OK   bool        `json:"ok"`
		Data versionInfo `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("expected JSON output, got parse error: %v; out=%s", err, out)
	}
	if !resp.OK || resp.Data.Version != "v2.0.0" || resp.Data.Platform != "darwin/arm64" {
		t.Fatalf("version output = %+v", resp)
	}
}

package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/buildinfo"
	"github.com/divehq/dive/internal/plugin"
	"github.com/divehq/dive/internal/store"
	"github.com/divehq/dive/internal/ui"
)

const defaultModulePath = "github.com/divehq/dive"

type versionInfo struct {
	Version    string   `json:"version"`
	ModulePath string   `json:"module_path"`
	Commit     string   `json:"commit,omitempty"`
	BuiltAt    string   `json:"built_at,omitempty"`
	Dirty      bool     `json:"dirty"`
	GoVersion  string   `json:"go_version"`
	Platform   string   `json:"platform"`
	DBSchema   int      `json:"db_schema"`
	Plugins    []string `json:"plugins"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show dive version, build and plugin information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()

		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		fmt.Println(ui.AccentBold.Render("dive " + info.Version))
		tbl := ui.NewTable(2)
		tbl.AddRow(ui.Hint("module"), info.ModulePath)
		if info.Commit != "" {
			commit := info.Commit
			if info.Dirty {
				commit += " (dirty)"
			}
			tbl.AddRow(ui.Hint("commit"), commit)
		}
		if info.BuiltAt != "" {
			tbl.AddRow(ui.Hint("built"), info.BuiltAt)
		}
		tbl.AddRow(ui.Hint("go"), info.GoVersion+" "+info.Platform)
		tbl.AddRow(ui.Hint("db schema"), fmt.Sprint(info.DBSchema))
		tbl.AddRow(ui.Hint("plugins"), strings.Join(info.Plugins, ", "))
		fmt.Print(tbl.String())
		return nil
	},
}

// currentVersionInfo merges debug.BuildInfo with ldflags-stamped values.
// Stamped values win: release builds are produced outside a VCS checkout.
func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		DBSchema:   store.CurrentDBVersion,
	}
	for _, p := range plugin.NewDefaultRegistry().Plugins() {
		info.Plugins = append(info.Plugins, p.Name+"@"+p.Version)
	}

	if bi, ok := readBuildInfo(); ok && bi != nil {
		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		if goos, goarch := settings["GOOS"], settings["GOARCH"]; goos != "" && goarch != "" {
			info.Platform = goos + "/" + goarch
		}
		info.Commit = settings["vcs.revision"]
		info.BuiltAt = settings["vcs.time"]
		info.Dirty = strings.EqualFold(settings["vcs.modified"], "true")
	}

	if buildinfo.Stamped() {
		if buildinfo.Version != "" {
			info.Version = buildinfo.Version
		}
		if buildinfo.Commit != "" {
			info.Commit = buildinfo.Commit
		}
		if buildinfo.Date != "" {
			info.BuiltAt = buildinfo.Date
		}
	}
	return info
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

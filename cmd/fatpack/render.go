// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatpack/fatpack/internal/app/assemble"
	"github.com/fatpack/fatpack/pkg/archive"
)

func renderAssembleResult(w io.Writer, result *assemble.Result, verbose bool) {
	report := result.Report

	fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("✓ Assembled"), PathStyle.Render(report.Output))
	fmt.Fprintf(w, "  %s %d, %s %d bytes\n", SubtitleStyle.Render("entries:"), report.Entries, SubtitleStyle.Render("size:"), report.Size)
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("sha256:"), report.SHA256)
	if result.Locked {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("sources from lock file"))
	}

	for _, src := range result.Resolution.Bundled() {
		fmt.Fprintf(w, "  %s %s\n", SuccessStyle.Render("bundled"), src.Coordinate)
	}
	if n := result.Resolution.Dropped(); n > 0 {
		fmt.Fprintf(w, "  %s %d sources not shipped\n", SubtitleStyle.Render("dropped:"), n)
		for _, c := range result.Resolution.Closures {
			for _, sp := range c.Sources {
				if sp.Decision == assemble.DecisionBundle {
					continue
				}
				fmt.Fprintf(w, "  %s %s %s\n", WarningStyle.Render("dropped"), sp.Source.Coordinate, SubtitleStyle.Render("("+sp.Reason+")"))
			}
		}
	}

	if n := len(report.Overridden); n > 0 {
		fmt.Fprintf(w, "  %s %d paths replaced by build output\n", SubtitleStyle.Render("overridden:"), n)
	}
	if n := len(report.Duplicates); n > 0 {
		fmt.Fprintf(w, "  %s %d paths kept from the first source\n", WarningStyle.Render("duplicates:"), n)
	}
	if !verbose {
		return
	}
	for _, s := range report.Overridden {
		fmt.Fprintln(w, VerboseStyle.Render(fmt.Sprintf("    %s: %s over %s", s.Path, s.Winner, s.Loser)))
	}
	for _, s := range report.Duplicates {
		fmt.Fprintln(w, VerboseStyle.Render(fmt.Sprintf("    %s: kept %s, dropped %s", s.Path, s.Winner, s.Loser)))
	}
}

func renderResolveResult(w io.Writer, result *assemble.ResolveResult) {
	fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("✓ Wrote"), PathStyle.Render(result.Project.LockPath))

	if len(result.Resolution.HostProvided) > 0 {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render("Provided by host"))
		for _, key := range result.Resolution.HostProvided {
			fmt.Fprintf(w, "  %s\n", key)
		}
	}
	for _, c := range result.Resolution.UnresolvedProvided {
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("unresolved, excluded by name:"), c)
	}

	for _, c := range result.Resolution.Closures {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render(c.Spec.Coordinate.String()))
		for _, sp := range c.Sources {
			indent := strings.Repeat("  ", sp.Source.Depth+1)
			if sp.Decision == assemble.DecisionBundle {
				fmt.Fprintf(w, "%s%s %s\n", indent, SuccessStyle.Render("+"), sp.Source.Coordinate)
				continue
			}
			fmt.Fprintf(w, "%s%s %s %s\n", indent, WarningStyle.Render("-"), sp.Source.Coordinate, SubtitleStyle.Render("("+sp.Reason+")"))
		}
	}
}

func renderProject(w io.Writer, p *assemble.Project) {
	fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓ Valid"), p.Spec.Name, p.Spec.Version)
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("entry point:"), p.Spec.Manifest.EntryPoint)
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("output:"), PathStyle.Render(p.Output))
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("duplicate policy:"), p.Policy)
	fmt.Fprintf(w, "  %s %d bundled, %d provided\n", SubtitleStyle.Render("dependencies:"), len(p.Bundled()), len(p.Provided()))
}

func renderInventory(w io.Writer, inv *archive.Inventory, listEntries bool) {
	fmt.Fprintf(w, "%s\n", TitleStyle.Render(inv.Path))
	fmt.Fprintf(w, "  %s %d, %s %d bytes\n", SubtitleStyle.Render("entries:"), len(inv.Entries), SubtitleStyle.Render("size:"), inv.Size)
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("sha256:"), inv.SHA256)
	if !inv.ManifestFirst {
		fmt.Fprintf(w, "  %s\n", WarningStyle.Render("manifest is not the first entry"))
	}

	if len(inv.Manifest) > 0 {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render("Manifest"))
		for _, attr := range inv.Manifest {
			fmt.Fprintf(w, "  %s: %s\n", PathStyle.Render(attr.Name), attr.Value)
		}
	}

	if listEntries {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render("Entries"))
		for _, e := range inv.Entries {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

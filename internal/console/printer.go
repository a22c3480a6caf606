// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package console writes human-readable, colored progress lines.
// Colors are dropped automatically when the writer is not a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/netSkope/gchat-groups/internal/group"
)

var (
	colorSuccess = lipgloss.Color("#95E1A3")
	colorPath    = lipgloss.Color("#4ECDC4")
	colorError   = lipgloss.Color("#FF6B6B")
	colorWarning = lipgloss.Color("#FFE66D")
	colorDim     = lipgloss.Color("#6C757D")
)

// Printer writes progress to out and failures to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer

	success lipgloss.Style
	path    lipgloss.Style
	errPath lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	dim     lipgloss.Style
}

// NewPrinter creates a Printer. Each writer gets its own color profile.
func NewPrinter(out, errOut io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	er := lipgloss.NewRenderer(errOut)
	return &Printer{
		out:     out,
		errOut:  errOut,
		success: r.NewStyle().Foreground(colorSuccess),
		path:    r.NewStyle().Foreground(colorPath),
		errPath: er.NewStyle().Foreground(colorPath),
		failure: er.NewStyle().Foreground(colorError),
		warning: r.NewStyle().Foreground(colorWarning),
		dim:     r.NewStyle().Foreground(colorDim),
	}
}

// FoundChatRoot announces the located chat folder.
func (p *Printer) FoundChatRoot(path string) {
	fmt.Fprintf(p.out, "%s%s%s\n", p.success.Render("Found "), p.path.Render(path), p.success.Render("!"))
	fmt.Fprintln(p.out, p.dim.Render("Making data... This may take awhile, so please be patient!"))
}

// GroupsExcluded reports that group data is skipped.
func (p *Printer) GroupsExcluded(err error) {
	fmt.Fprintln(p.out, p.dim.Render(err.Error()))
	fmt.Fprintln(p.out, p.warning.Render("Groups information will be excluded because it could not be found."))
}

// GroupFinished implements group.Reporter.
func (p *Printer) GroupFinished(rec *group.Record) {
	fmt.Fprintf(p.out, "%s%s%s\n", p.success.Render("Finished making data on "), p.path.Render(rec.Name), p.success.Render("!"))
}

// AllGroupsFinished implements group.Reporter.
func (p *Printer) AllGroupsFinished(groups group.Collection) {
	fmt.Fprintln(p.out, p.success.Render("Finished making data on the following groups:"))
	for _, name := range groups.Names() {
		fmt.Fprintln(p.out, p.path.Render(name))
	}
}

// Failure writes a remediation message. Spans wrapped in backticks are highlighted as paths.
func (p *Printer) Failure(msg string) {
	var b strings.Builder
	for i, part := range strings.Split(msg, "`") {
		if i%2 == 1 {
			b.WriteString(p.errPath.Render(part))
		} else if part != "" {
			b.WriteString(p.failure.Render(part))
		}
	}
	fmt.Fprintln(p.errOut, b.String())
}

// Summary prints the final run summary.
func (p *Printer) Summary(lines ...string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "=== Google Chat Groups Summary ===")
	for _, line := range lines {
		fmt.Fprintln(p.out, line)
	}
	fmt.Fprintln(p.out, "==================================")
}

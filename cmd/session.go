package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/adcorr-cli/internal/ingest"
	"github.com/KaramelBytes/adcorr-cli/internal/session"
	"github.com/KaramelBytes/adcorr-cli/internal/workspace"
)

// ingestOptions applies workspace overrides on top of the global config.
func ingestOptions(ws *workspace.Workspace) ingest.Options {
	opt := settings().IngestOptions()
	if ws == nil || ws.Settings == nil {
		return opt
	}
	switch ws.Settings.DateOrder {
	case string(ingest.DayFirst):
		opt.DateOrder = ingest.DayFirst
	case string(ingest.MonthFirst):
		opt.DateOrder = ingest.MonthFirst
	}
	switch ws.Settings.DecimalSeparator {
	case ".":
		opt.DecimalSeparator = '.'
	case ",":
		opt.DecimalSeparator = ','
	}
	return opt
}

// newSession builds an empty session that parses with opt.
func newSession(opt ingest.Options, onLoad func(session.LoadEvent)) (*session.Session, error) {
	c := settings()
	aliases, err := c.AliasTable()
	if err != nil {
		return nil, fmt.Errorf("aliases: %w", err)
	}
	s := session.New(session.Config{
		Platforms: c.Platforms,
		Aliases:   aliases,
		Options:   opt,
		Logger:    log,
		OnLoad:    onLoad,
	})
	if c.DefaultMetric != "" {
		s.SetMetric(c.DefaultMetric)
	}
	return s, nil
}

// restoreWorkspace locates a workspace and replays it into a new session.
func restoreWorkspace(name string) (*workspace.Workspace, *session.Session, error) {
	ws, err := locateWorkspace(name)
	if err != nil {
		return nil, nil, err
	}
	s, err := newSession(ingestOptions(ws), nil)
	if err != nil {
		return nil, nil, err
	}
	if err := ws.Restore(s); err != nil {
		return nil, nil, fmt.Errorf("restore workspace %s: %w", ws.Name, err)
	}
	return ws, s, nil
}

// applyParseFlags overrides opt from command-line values; empty values keep opt.
func applyParseFlags(opt *ingest.Options, dateOrder, decimal, sheet string) error {
	switch strings.ToLower(strings.TrimSpace(dateOrder)) {
	case "":
	case "dmy":
		opt.DateOrder = ingest.DayFirst
	case "mdy":
		opt.DateOrder = ingest.MonthFirst
	default:
		return fmt.Errorf("unsupported --date-order: %s (use dmy|mdy)", dateOrder)
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case "":
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	if sheet != "" {
		opt.Sheet = sheet
	}
	return nil
}

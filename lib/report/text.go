// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/tustats/lib/rank"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// textStyles are bound to a renderer so that color is decided by
// Options.Color, not by whatever terminal the process happens to have.
type textStyles struct {
	key    lipgloss.Style
	file   lipgloss.Style
	label  lipgloss.Style
	prefix lipgloss.Style
	faint  lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	return textStyles{
		key:    renderer.NewStyle().Foreground(lipgloss.Color("243")),
		file:   renderer.NewStyle().Bold(true),
		label:  renderer.NewStyle().Foreground(lipgloss.Color("109")).Width(14),
		prefix: renderer.NewStyle().Foreground(lipgloss.Color("179")),
		faint:  renderer.NewStyle().Faint(true),
	}
}

// WriteText writes one block per record followed by a record count.
func WriteText(ctx context.Context, w io.Writer, store Scanner, options Options) error {
	styles := newTextStyles(w, options.Color)
	rule := options.rule()

	count := 0
	err := store.Iterate(ctx, func(entry statstore.Entry) error {
		if count > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		count++
		_, err := io.WriteString(w, textBlock(styles, entry, rule))
		return err
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	summary := fmt.Sprintf("%s records", humanize.Comma(int64(count)))
	if count == 1 {
		summary = "1 record"
	}
	if count > 0 {
		summary = "\n" + summary
	}
	if _, err := fmt.Fprintln(w, styles.faint.Render(summary)); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func textBlock(styles textStyles, entry statstore.Entry, rule rank.PrefixRule) string {
	record := entry.Record
	ranking := rank.Rank(record.Includes, rule)

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s  %s  %s\n",
		styles.key.Render(entry.Key.String()),
		record.Timestamp.Local().Format("2006-01-02 15:04:05"),
		styles.file.Render(record.InputFile),
	)

	line := func(label, value string) {
		fmt.Fprintf(&builder, "  %s%s\n", styles.label.Render(label), value)
	}
	line("preprocessed", fmt.Sprintf("%s bytes (%s)",
		humanize.Comma(int64(record.PreprocessedSize)),
		humanize.Bytes(record.PreprocessedSize)))
	line("includes", humanize.Comma(int64(record.NumIncludes())))
	line("preprocess", formatDuration(record.PreprocessDuration))
	line("compile", formatDuration(record.CompileDuration))
	line("distributed", formatDistributed(record.IsDistributed, record.DistRetryCount))
	line("top by count", formatGroups(styles, ranking.ByCount))
	line("top by size", formatGroups(styles, ranking.BySize))
	return builder.String()
}

func formatDistributed(distributed bool, retries uint32) string {
	switch {
	case !distributed:
		return "no"
	case retries == 1:
		return "yes (1 retry)"
	default:
		return fmt.Sprintf("yes (%d retries)", retries)
	}
}

func formatGroups(styles textStyles, slots [rank.TopK]rank.Group) string {
	var parts []string
	for _, group := range slots {
		if group.IsZero() {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s",
			styles.prefix.Render(group.Prefix),
			styles.faint.Render(fmt.Sprintf("(%s, %s)",
				plural(group.FileCount, "file"),
				plural(group.LineCount, "line"))),
		))
	}
	if len(parts) == 0 {
		return styles.faint.Render("-")
	}
	return strings.Join(parts, "  ")
}

func plural(n uint64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// formatDuration picks the largest sensible unit.
func formatDuration(duration time.Duration) string {
	switch {
	case duration < time.Microsecond:
		return fmt.Sprintf("%dns", duration.Nanoseconds())
	case duration < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(duration)/float64(time.Microsecond))
	case duration < time.Second:
		return fmt.Sprintf("%.1fms", float64(duration)/float64(time.Millisecond))
	case duration < time.Minute:
		return fmt.Sprintf("%.2fs", duration.Seconds())
	default:
		minutes := int(duration / time.Minute)
		seconds := int((duration % time.Minute) / time.Second)
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

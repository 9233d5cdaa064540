package export

import (
	"fmt"
	"strings"

	"objcmeta/internal/metadata"
)

// FormatTextSummary renders the document as an indented outline grouped by
// file.
func FormatTextSummary(doc *metadata.Document, opts Options) string {
	var sb strings.Builder
	stats := doc.Stats()
	groups := NewOrganizer(doc).Organize()

	if opts.Header != "" {
		sb.WriteString(fmt.Sprintf("# Header: %s\n", opts.Header))
	}
	sb.WriteString(fmt.Sprintf("# Records: %d | Files: %d\n", stats.Total(), len(groups)))
	sb.WriteString("# " + Summary(stats) + "\n\n")

	for _, group := range groups {
		path := group.Path
		if path == "" {
			path = "(unknown file)"
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", path))
		for _, e := range group.Entries {
			sb.WriteString(fmt.Sprintf("  %s %s\n", prefix(e.Kind), e.Signature))
			for _, m := range e.Members {
				sb.WriteString(fmt.Sprintf("      %s %s\n", prefix(m.Kind), m.Signature))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n")
	sb.WriteString("Legend:\n")
	sb.WriteString("  $  = type\n")
	sb.WriteString("  #  = function/method\n")
	sb.WriteString("  =  = variable/constant\n")
	sb.WriteString("  .  = field/property\n")

	return sb.String()
}

// Summary renders record counts on one line.
func Summary(stats metadata.Stats) string {
	return fmt.Sprintf("variables=%d enums=%d structs=%d functions=%d interfaces=%d categories=%d protocols=%d",
		stats.Variables, stats.Enums, stats.Structs, stats.Functions,
		stats.Interfaces, stats.Categories, stats.Protocols)
}

func prefix(kind EntryKind) string {
	switch kind {
	case KindEnum, KindStruct, KindInterface, KindCategory, KindProtocol:
		return "$"
	case KindFunction, KindMethod, KindClassMethod:
		return "#"
	case KindVariable, KindConstant:
		return "="
	default:
		return "."
	}
}

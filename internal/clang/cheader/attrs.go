package cheader

import (
	"regexp"
	"strconv"
	"strings"

	"objcmeta/internal/clang"
)

var (
	attributeRe = regexp.MustCompile(`__attribute__\s*\(`)
	apiMacroRe  = regexp.MustCompile(`\b_*API_(AVAILABLE|DEPRECATED|DEPRECATED_WITH_REPLACEMENT|UNAVAILABLE)\s*\(`)
)

// platformAliases folds spellings accepted by clang into the names it reports.
var platformAliases = map[string]string{
	"macosx":               "macos",
	"macOS":                "macos",
	"iOS":                  "ios",
	"tvOS":                 "tvos",
	"watchOS":              "watchos",
	"macCatalyst":          "maccatalyst",
	"macosx_app_extension": "macos_app_extension",
}

func platformName(s string) string {
	s = strings.TrimSpace(s)
	if alias, ok := platformAliases[s]; ok {
		return alias
	}
	return s
}

// parseAvailability collects availability from __attribute__ lists and the
// Apple API_* macros found in a declaration's source text.
func parseAvailability(text string) clang.Availability {
	var a clang.Availability
	byPlatform := map[string]int{}
	entry := func(platform string) *clang.PlatformAvailability {
		platform = platformName(platform)
		if i, ok := byPlatform[platform]; ok {
			return &a.Platforms[i]
		}
		byPlatform[platform] = len(a.Platforms)
		a.Platforms = append(a.Platforms, clang.PlatformAvailability{Platform: platform})
		return &a.Platforms[len(a.Platforms)-1]
	}

	for _, loc := range attributeRe.FindAllStringIndex(text, -1) {
		body, ok := balanced(text[loc[1]-1:])
		if !ok {
			continue
		}
		// __attribute__((a, b)) has an extra pair of parentheses.
		body = strings.TrimSpace(body)
		if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
			body = body[1 : len(body)-1]
		}
		for _, attr := range splitTopLevel(body) {
			name, args := splitCall(attr)
			switch strings.Trim(name, "_") {
			case "unavailable":
				a.AlwaysUnavailable = true
			case "deprecated":
				a.AlwaysDeprecated = true
			case "availability":
				applyAvailabilityAttr(args, entry)
			}
		}
	}

	for _, m := range apiMacroRe.FindAllStringSubmatchIndex(text, -1) {
		body, ok := balanced(text[m[1]-1:])
		if !ok {
			continue
		}
		kind := text[m[2]:m[3]]
		for _, arg := range splitTopLevel(body) {
			platform, versions := splitCall(arg)
			if strings.HasPrefix(platform, `"`) {
				continue // message
			}
			e := entry(platform)
			vs := splitTopLevel(versions)
			switch kind {
			case "AVAILABLE":
				if len(vs) > 0 {
					e.Introduced, _ = clang.ParseVersion(vs[0])
				}
			case "DEPRECATED", "DEPRECATED_WITH_REPLACEMENT":
				if len(vs) > 0 {
					e.Introduced, _ = clang.ParseVersion(vs[0])
				}
				if len(vs) > 1 {
					e.Deprecated, _ = clang.ParseVersion(vs[1])
				}
				if msg := firstString(body); msg != "" {
					e.Message = msg
				}
			case "UNAVAILABLE":
				e.Unavailable = true
			}
		}
	}
	return a
}

// applyAvailabilityAttr handles availability(platform, introduced=X, ...).
func applyAvailabilityAttr(args string, entry func(string) *clang.PlatformAvailability) {
	parts := splitTopLevel(args)
	if len(parts) == 0 {
		return
	}
	e := entry(parts[0])
	for _, p := range parts[1:] {
		key, value, _ := strings.Cut(p, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "introduced":
			e.Introduced, _ = clang.ParseVersion(value)
		case "deprecated":
			e.Deprecated, _ = clang.ParseVersion(value)
		case "obsoleted":
			e.Obsoleted, _ = clang.ParseVersion(value)
		case "unavailable":
			e.Unavailable = true
		case "message":
			if s, err := strconv.Unquote(value); err == nil {
				e.Message = s
			}
		}
	}
}

// balanced returns the text inside the parenthesis that s starts with.
func balanced(s string) (string, bool) {
	if !strings.HasPrefix(s, "(") {
		return "", false
	}
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inString:
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

// splitTopLevel splits on commas outside parentheses and strings.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inString:
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

// splitCall splits "name(args)" into name and args. Bare names have no args.
func splitCall(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, '(')
	if i < 0 {
		return s, ""
	}
	args, ok := balanced(s[i:])
	if !ok {
		return strings.TrimSpace(s[:i]), ""
	}
	return strings.TrimSpace(s[:i]), args
}

func firstString(s string) string {
	for _, part := range splitTopLevel(s) {
		if v, err := strconv.Unquote(part); err == nil {
			return v
		}
	}
	return ""
}

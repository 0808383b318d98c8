package model

import (
	"regexp"
	"strings"
)

var seriesRefPattern = regexp.MustCompile(`#([A-Z])`)

// refEntry is a substitutable sibling body with the number of substitutions
// it still allows before it is dropped from the table
type refEntry struct {
	body     string
	refCount int
}

// ResolveReferences replaces every #X in text with the body of the sibling
// whose RefID is X, repeating until nothing changes. The target being
// resolved is refID; a reference to itself is replaced once by text.
//
// Each sibling may be substituted as many times as it is referenced by the
// other bodies, plus once. After that it is removed, so mutually referencing
// targets terminate with the remaining references left as written. Unknown
// ids are kept as well.
func ResolveReferences(text, refID string, siblings []Target) string {
	if !strings.Contains(text, "#") {
		return text
	}

	table := make(map[string]*refEntry, len(siblings)+1)
	for _, s := range siblings {
		if s.RefID == "" || s.RefID == refID {
			continue
		}
		table[s.RefID] = &refEntry{body: s.Target}
	}
	if refID != "" {
		table[refID] = &refEntry{body: text}
	}

	for id, entry := range table {
		if id == refID {
			continue
		}
		for otherID, other := range table {
			if otherID == id {
				continue
			}
			for _, match := range seriesRefPattern.FindAllStringSubmatch(other.body, -1) {
				if match[1] == id {
					entry.refCount++
				}
			}
		}
	}

	resolved := text
	for seriesRefPattern.MatchString(resolved) {
		updated := seriesRefPattern.ReplaceAllStringFunc(resolved, func(match string) string {
			id := match[1:]
			entry, ok := table[id]
			if !ok {
				return match
			}
			if entry.refCount == 0 {
				delete(table, id)
			}
			entry.refCount--
			return entry.body
		})
		if updated == resolved {
			break
		}
		resolved = updated
	}
	return resolved
}

package journal

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Change describes one JSON path whose value differs between two state
// snapshots. Changed values carry both sides, additions only After,
// removals only Before.
type Change struct {
	Path   string `json:"path"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Diff lists the leaf paths on which two JSON documents differ, in
// document order: additions and changes first, then removals. Values are
// compared byte-wise, which is exact for documents produced by the same
// codec. Paths use dotted gjson syntax; an empty path means the document
// root.
func Diff(before, after json.RawMessage) []Change {
	b := gjson.ParseBytes(before)
	a := gjson.ParseBytes(after)

	if !isContainer(a) || !isContainer(b) {
		if a.Raw != b.Raw {
			return []Change{{Path: "", Before: b.Raw, After: a.Raw}}
		}
		return nil
	}

	var changes []Change
	walkLeaves("", a, func(path string, v gjson.Result) {
		if path == "" {
			return
		}
		old := b.Get(path)
		switch {
		case !old.Exists():
			changes = append(changes, Change{Path: path, After: v.Raw})
		case old.Raw != v.Raw:
			changes = append(changes, Change{Path: path, Before: old.Raw, After: v.Raw})
		}
	})
	walkLeaves("", b, func(path string, old gjson.Result) {
		if path == "" {
			return
		}
		if !a.Get(path).Exists() {
			changes = append(changes, Change{Path: path, Before: old.Raw})
		}
	})
	return changes
}

func isContainer(v gjson.Result) bool {
	return v.IsObject() || v.IsArray()
}

// walkLeaves visits every leaf of v with its dotted path. Empty containers
// count as leaves.
func walkLeaves(prefix string, v gjson.Result, visit func(path string, leaf gjson.Result)) {
	if !isContainer(v) {
		visit(prefix, v)
		return
	}

	idx := 0
	empty := true
	isArray := v.IsArray()
	v.ForEach(func(key, child gjson.Result) bool {
		empty = false
		var seg string
		if isArray {
			seg = strconv.Itoa(idx)
		} else {
			seg = escapeKey(key.String())
		}
		idx++
		walkLeaves(joinPath(prefix, seg), child, visit)
		return true
	})
	if empty {
		visit(prefix, v)
	}
}

func joinPath(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

func escapeKey(key string) string {
	return pathEscaper.Replace(key)
}

package prompt

import (
	"sort"
	"strings"

	"github.com/iancoleman/orderedmap"

	"dreampulse/types"
)

// MaxDepth bounds how many nested objects Extract descends through.
const MaxDepth = 8

// DefaultAnalysisKeys are probed against the analysis payload, highest priority first.
var DefaultAnalysisKeys = []string{
	"video_prompt",
	"visual_prompt",
	"videoPrompt",
	"visualPrompt",
	"scene_description",
	"sceneDescription",
	"result",
	"summary",
}

// DefaultPipelineKeys are probed against the prompt pipeline response.
var DefaultPipelineKeys = []string{
	"prompt",
	"video_prompt",
	"result",
	"freepik_prompt",
	"description",
}

// Extract returns the first non-blank string found under one of keys.
// The top level is checked in key order first, then nested objects are
// searched depth-first in their own key order. Only string values count.
// An empty result means nothing matched.
func Extract(structure any, keys []string) string {
	return extract(structure, keys, 0)
}

func extract(structure any, keys []string, depth int) string {
	f, ok := fieldsOf(structure)
	if !ok {
		return ""
	}
	for _, key := range keys {
		v, found := f.get(key)
		if !found {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
			return s
		}
	}
	if depth >= MaxDepth {
		return ""
	}
	for _, k := range f.keys {
		v, _ := f.get(k)
		if _, nested := fieldsOf(v); !nested {
			continue
		}
		if s := extract(v, keys, depth+1); s != "" {
			return s
		}
	}
	return ""
}

type fields struct {
	keys []string
	get  func(string) (any, bool)
}

// fieldsOf reports whether v is a keyed structure. Plain Go maps have no
// insertion order, so their keys are visited sorted.
func fieldsOf(v any) (fields, bool) {
	switch m := v.(type) {
	case *types.Object:
		if m == nil {
			return fields{}, false
		}
		return fields{keys: m.Keys(), get: m.Get}, true
	case *orderedmap.OrderedMap:
		if m == nil {
			return fields{}, false
		}
		return fields{keys: m.Keys(), get: m.Get}, true
	case orderedmap.OrderedMap:
		return fields{keys: m.Keys(), get: m.Get}, true
	case map[string]any:
		if m == nil {
			return fields{}, false
		}
		return fields{
			keys: sortedKeys(m),
			get: func(k string) (any, bool) {
				x, ok := m[k]
				return x, ok
			},
		}, true
	case map[string]string:
		if m == nil {
			return fields{}, false
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fields{
			keys: keys,
			get: func(k string) (any, bool) {
				x, ok := m[k]
				return x, ok
			},
		}, true
	}
	return fields{}, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsStructure reports whether v is a keyed structure Extract can search.
func IsStructure(v any) bool {
	_, ok := fieldsOf(v)
	return ok
}

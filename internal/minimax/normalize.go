package minimax

import (
	"sort"
	"strings"
)

// videoExt marks a URL as pointing at a video artifact.
const videoExt = ".mp4"

// ExtractResult normalizes an arbitrary decoded JSON payload into a
// (status, result URL) pair. Different provider versions wrap the result in
// incompatible envelopes; this is the single place that variance is absorbed.
//
// URL extraction rules, in priority order:
//  1. top-level "video_url" or "result_url" string fields
//  2. a nested "result" or "output" object carrying a "video_url"
//  3. an "outputs" list of {url, type} entries, preferring video entries
//  4. a "jobs" list where each job carries a "results" mapping of named
//     outputs, each a single {url, type} object or a list of them
//  5. a depth-first scan of the whole tree for any string containing ".mp4"
//
// The status comes from the top-level "status"/"state" field, falling back
// to the first job's status; "" means unknown or still pending.
func ExtractResult(payload any) (status string, url string) {
	root, ok := payload.(map[string]any)
	if !ok {
		return "", deepScanVideoURL(payload)
	}

	status = statusField(root)
	jobs := sliceValue(root["jobs"])
	if status == "" && len(jobs) > 0 {
		if job, ok := jobs[0].(map[string]any); ok {
			status = statusField(job)
		}
	}

	if u := stringField(root, "video_url", "result_url"); u != "" {
		return status, u
	}

	for _, key := range []string{"result", "output"} {
		if nested, ok := root[key].(map[string]any); ok {
			if u := stringField(nested, "video_url"); u != "" {
				return status, u
			}
		}
	}

	if u := urlFromOutputs(sliceValue(root["outputs"])); u != "" {
		return status, u
	}

	if u := urlFromJobs(jobs); u != "" {
		return status, u
	}

	return status, deepScanVideoURL(root)
}

// statusField reads the lowercased "status" or "state" field of an object.
func statusField(obj map[string]any) string {
	for _, key := range []string{"status", "state"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return strings.ToLower(s)
		}
	}
	return ""
}

// stringField returns the first non-empty string among the named fields.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// sliceValue coerces a decoded JSON value into a slice, or nil.
func sliceValue(v any) []any {
	s, _ := v.([]any)
	return s
}

// urlFromOutputs picks a URL from an outputs list of {url, type} entries.
// Entries marked as video (or ending in the video extension) win; otherwise
// the first entry with a URL is taken.
func urlFromOutputs(outputs []any) string {
	var fallback string
	for _, entry := range outputs {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		u := stringField(obj, "url")
		if u == "" {
			continue
		}
		if isVideoOutput(obj, u) {
			return u
		}
		if fallback == "" {
			fallback = u
		}
	}
	return fallback
}

// urlFromJobs picks a URL from a jobs list. Each job carries a "results"
// mapping of named outputs; every job in the set is scanned, not only the
// first, since a multi-job set may park the artifact on a later job.
func urlFromJobs(jobs []any) string {
	var fallback string
	for _, entry := range jobs {
		job, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		results, ok := job["results"].(map[string]any)
		if !ok {
			continue
		}
		for _, name := range sortedKeys(results) {
			for _, candidate := range normalizedOutputs(results[name]) {
				u := stringField(candidate, "url")
				if u == "" {
					continue
				}
				if isVideoOutput(candidate, u) {
					return u
				}
				if fallback == "" {
					fallback = u
				}
			}
		}
	}
	return fallback
}

// normalizedOutputs flattens a named result value, which may be a single
// output object or a list of them, into a slice of objects.
func normalizedOutputs(v any) []map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return []map[string]any{val}
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}

// isVideoOutput reports whether an output entry is marked as video, either
// by its type field or by its URL extension.
func isVideoOutput(obj map[string]any, url string) bool {
	if t, ok := obj["type"].(string); ok && strings.Contains(strings.ToLower(t), "video") {
		return true
	}
	return strings.Contains(strings.ToLower(url), videoExt)
}

// deepScanVideoURL is the last-resort extraction rule: a depth-first walk
// of the whole tree for any string containing the video extension. Map keys
// are visited in sorted order so the scan is deterministic.
func deepScanVideoURL(v any) string {
	switch val := v.(type) {
	case string:
		if strings.Contains(strings.ToLower(val), videoExt) {
			return val
		}
	case map[string]any:
		for _, key := range sortedKeys(val) {
			if u := deepScanVideoURL(val[key]); u != "" {
				return u
			}
		}
	case []any:
		for _, item := range val {
			if u := deepScanVideoURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

// sortedKeys returns the keys of a decoded JSON object in sorted order.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

// merge deep-merges update over existing and returns the result. Values from
// update win on key collision; keys only present in existing are preserved.
// Nested maps merge recursively, everything else (including slices) is
// replaced wholesale. Neither input is mutated.
func merge(existing, update Payload) Payload {
	out := make(Payload, len(existing)+len(update))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range update {
		newMap, newOK := asPayload(v)
		oldMap, oldOK := asPayload(out[k])
		if newOK && oldOK {
			out[k] = merge(oldMap, newMap)
			continue
		}
		out[k] = v
	}
	return out
}

func asPayload(v interface{}) (Payload, bool) {
	switch m := v.(type) {
	case Payload:
		return m, true
	case map[string]interface{}:
		return Payload(m), true
	default:
		return nil, false
	}
}

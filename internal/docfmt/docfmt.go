// Package docfmt post-processes extracted section data into the
// DocuPorter output format: paired orig_/current fields, empty-field
// cleanup, and task activity sequence renumbering.
package docfmt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/procdoc/procdoc/internal/jsonx"
	"github.com/procdoc/procdoc/internal/schema"
)

// pairedFields maps a content field to its orig_ counterpart. Both
// sides of a pair always carry the same value after duplication.
var pairedFields = map[string]string{
	"text":  "orig_text",
	"image": "orig_image",
	"seq":   "orig_seq",
}

var origFields = map[string]string{
	"orig_text":  "text",
	"orig_image": "image",
	"orig_seq":   "seq",
}

// Format applies all DocuPorter formatting rules for a section type.
func Format(v jsonx.Value, t schema.SectionType) jsonx.Value {
	out := CleanEmptyFields(DuplicateOrigFields(v))
	if t == schema.TypeTaskActivities && out.Kind == jsonx.KindArray {
		out = FixTaskSequences(out)
	}
	return out
}

// DuplicateOrigFields mirrors text/image/seq values into their orig_
// counterparts (and back), so every pair carries the same value. The
// orig_ member is emitted immediately before its partner.
func DuplicateOrigFields(v jsonx.Value) jsonx.Value {
	switch v.Kind {
	case jsonx.KindObject:
		out := jsonx.Value{Kind: jsonx.KindObject, Obj: make([]jsonx.Member, 0, len(v.Obj))}
		for _, m := range v.Obj {
			if orig, ok := pairedFields[m.Key]; ok {
				if _, exists := v.Get(orig); !exists {
					out.Obj = append(out.Obj, jsonx.Member{Key: orig, Value: m.Value})
				}
				out.Obj = append(out.Obj, m)
				continue
			}
			if plain, ok := origFields[m.Key]; ok {
				out.Obj = append(out.Obj, m)
				if _, exists := v.Get(plain); !exists {
					out.Obj = append(out.Obj, jsonx.Member{Key: plain, Value: m.Value})
				}
				continue
			}
			out.Obj = append(out.Obj, jsonx.Member{Key: m.Key, Value: DuplicateOrigFields(m.Value)})
		}
		return out
	case jsonx.KindArray:
		out := jsonx.Value{Kind: jsonx.KindArray, Arr: make([]jsonx.Value, len(v.Arr))}
		for i, item := range v.Arr {
			out.Arr[i] = DuplicateOrigFields(item)
		}
		return out
	default:
		return v
	}
}

// isPairDict reports whether an object is a text/image leaf record.
func isPairDict(v jsonx.Value) bool {
	for _, m := range v.Obj {
		if _, ok := pairedFields[m.Key]; ok {
			return true
		}
		if _, ok := origFields[m.Key]; ok {
			return true
		}
	}
	return false
}

// CleanEmptyFields drops content-free records: a text/image record
// whose fields are all empty collapses to an empty object, and empty
// items are removed from arrays.
func CleanEmptyFields(v jsonx.Value) jsonx.Value {
	switch v.Kind {
	case jsonx.KindObject:
		if isPairDict(v) {
			hasContent := false
			for _, m := range v.Obj {
				if !m.Value.IsEmpty() {
					hasContent = true
					break
				}
			}
			if !hasContent {
				return jsonx.Object()
			}
			out := jsonx.Value{Kind: jsonx.KindObject}
			for _, m := range v.Obj {
				_, isPairField := pairedFields[m.Key]
				_, isOrigField := origFields[m.Key]
				cleaned := CleanEmptyFields(m.Value)
				if !cleaned.IsEmpty() || isPairField || isOrigField {
					out.Obj = append(out.Obj, jsonx.Member{Key: m.Key, Value: cleaned})
				}
			}
			return out
		}
		out := jsonx.Value{Kind: jsonx.KindObject}
		for _, m := range v.Obj {
			out.Obj = append(out.Obj, jsonx.Member{Key: m.Key, Value: CleanEmptyFields(m.Value)})
		}
		return out
	case jsonx.KindArray:
		out := jsonx.Value{Kind: jsonx.KindArray}
		for _, item := range v.Arr {
			cleaned := CleanEmptyFields(item)
			if !cleaned.IsEmpty() {
				out.Arr = append(out.Arr, cleaned)
			}
		}
		return out
	default:
		return v
	}
}

// subHeadingPatterns mark task activity rows that group steps rather
// than being steps themselves. They keep an empty sequence number.
var subHeadingPatterns = []string{
	"tasks to be done under isolation",
	"pre-isolation",
	"post-isolation",
	"under isolation",
	"normal conditions",
}

var subItemRe = regexp.MustCompile(`^[a-z]\.|^\d+[a-z]`)

// FixTaskSequences renumbers task activity items: sub-headings get an
// empty sequence_no, lettered sub-items under a sub-heading get the
// next running number, and plain numbered rows reset the counter.
func FixTaskSequences(v jsonx.Value) jsonx.Value {
	if v.Kind != jsonx.KindArray {
		return v
	}

	out := jsonx.Value{Kind: jsonx.KindArray, Arr: make([]jsonx.Value, 0, len(v.Arr))}
	seq := 0
	inSubHeading := false

	for _, item := range v.Arr {
		if item.Kind != jsonx.KindObject {
			out.Arr = append(out.Arr, item)
			continue
		}

		item = ensureTextPair(item, "step_no")
		item = ensureTextPair(item, "equipment_asset")

		nameText := pairText(item, "sequence_name")
		noText := pairText(item, "sequence_no")

		switch {
		case isSubHeading(nameText):
			inSubHeading = true
			item = setTextPair(item, "sequence_no", "")
		case inSubHeading && subItemRe.MatchString(strings.ToLower(noText)):
			seq++
			item = setTextPair(item, "sequence_no", strconv.Itoa(seq))
		default:
			if n, err := strconv.Atoi(noText); err == nil {
				seq = n
				inSubHeading = false
			}
		}

		out.Arr = append(out.Arr, item)
	}
	return out
}

func isSubHeading(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range subHeadingPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// pairText reads the "text" half of a text pair field.
func pairText(item jsonx.Value, key string) string {
	field, ok := item.Get(key)
	if !ok {
		return ""
	}
	if field.Kind == jsonx.KindString {
		return field.Str
	}
	if text, ok := field.Get("text"); ok && text.Kind == jsonx.KindString {
		return text.Str
	}
	return ""
}

// setTextPair overwrites both halves of a text pair field.
func setTextPair(item jsonx.Value, key, text string) jsonx.Value {
	return item.Set(key, jsonx.Object(
		jsonx.Member{Key: "orig_text", Value: jsonx.String(text)},
		jsonx.Member{Key: "text", Value: jsonx.String(text)},
	))
}

// ensureTextPair adds an empty text pair when the field is missing or
// empty, keeping the record shape uniform for downstream consumers.
func ensureTextPair(item jsonx.Value, key string) jsonx.Value {
	if field, ok := item.Get(key); ok && !field.IsEmpty() {
		return item
	}
	return item.Set(key, jsonx.Object(
		jsonx.Member{Key: "orig_text", Value: jsonx.String("")},
		jsonx.Member{Key: "text", Value: jsonx.String("")},
	))
}

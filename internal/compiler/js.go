package compiler

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// jsCode is emitted verbatim inside an options object (functions, references)
type jsCode string

var nonIdentRe = regexp.MustCompile(`[^A-Za-z0-9_$]`)

// jsIdent turns an arbitrary name into a JavaScript identifier
func jsIdent(name string) string {
	s := nonIdentRe.ReplaceAllString(name, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	return s
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// marshalJS renders an options value as a JavaScript object literal. Keys are
// sorted, jsCode values are inlined unquoted.
func marshalJS(v interface{}) (string, error) {
	var code []string
	prepared := substituteCode(v, &code)

	b, err := json.Marshal(prepared)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart options: %w", err)
	}

	out := string(b)
	for i, c := range code {
		out = strings.Replace(out, jsString(placeholder(i)), c, 1)
	}
	return out, nil
}

func placeholder(i int) string {
	return fmt.Sprintf("@@js%d@@", i)
}

// substituteCode replaces every jsCode with a numbered placeholder in sorted
// key order so the rendered output is stable.
func substituteCode(v interface{}, code *[]string) interface{} {
	switch t := v.(type) {
	case jsCode:
		*code = append(*code, string(t))
		return placeholder(len(*code) - 1)
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(t))
		for _, k := range keys {
			out[k] = substituteCode(t[k], code)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = substituteCode(e, code)
		}
		return out
	default:
		return v
	}
}

// mustJS is marshalJS for option trees built entirely in this package
func mustJS(v interface{}) string {
	s, err := marshalJS(v)
	if err != nil {
		panic(err)
	}
	return s
}

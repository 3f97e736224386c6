// Package prompts holds the system/user prompt pairs of the recruiting stages,
// embedded from recruiting.json and parsed once on first use.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

//go:embed recruiting.json
var recruitingJSON []byte

// Template is a system/user prompt pair with {{.Key}} placeholders
type Template struct {
	System string `json:"system"`
	User   string `json:"user"`
}

var catalog = sync.OnceValues(func() (map[string]Template, error) {
	var templates map[string]Template
	if err := json.Unmarshal(recruitingJSON, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse recruiting prompts: %w", err)
	}
	return templates, nil
})

// Get returns the template stored under key.
func Get(key string) (Template, error) {
	templates, err := catalog()
	if err != nil {
		return Template{}, err
	}
	tmpl, ok := templates[key]
	if !ok {
		return Template{}, fmt.Errorf("prompt %q not found", key)
	}
	return tmpl, nil
}

// Keys returns the sorted template keys.
func Keys() ([]string, error) {
	templates, err := catalog()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Render fills both halves of the template. Placeholders without a value are
// left as-is, and substituted values are never expanded again.
func (t Template) Render(data map[string]string) (system, user string) {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(t.System), r.Replace(t.User)
}

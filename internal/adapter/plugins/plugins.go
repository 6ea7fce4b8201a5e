// Package plugins selects an adapter by plugin slug.
package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter/buddypress"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter/ultimatemember"
)

type factory func(adapter.Deps) adapter.Adapter

var registry = map[string]factory{
	ultimatemember.Slug: func(d adapter.Deps) adapter.Adapter { return ultimatemember.New(d) },
	buddypress.Slug:     func(d adapter.Deps) adapter.Adapter { return buddypress.New(d) },
}

var aliases = map[string]string{
	"ultimate-member": ultimatemember.Slug,
	"ultimatemember":  ultimatemember.Slug,
	"um":              ultimatemember.Slug,
	"buddypress":      buddypress.Slug,
	"buddy-press":     buddypress.Slug,
	"bp":              buddypress.Slug,
}

// Canonical resolves a slug or alias to the canonical slug.
func Canonical(slug string) (string, error) {
	s, ok := aliases[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", adapter.ErrUnknownPlugin, slug, strings.Join(Slugs(), ", "))
	}
	return s, nil
}

// New returns the adapter for slug.
func New(slug string, deps adapter.Deps) (adapter.Adapter, error) {
	canonical, err := Canonical(slug)
	if err != nil {
		return nil, err
	}
	return registry[canonical](deps), nil
}

// Slugs returns the canonical slugs in sorted order.
func Slugs() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

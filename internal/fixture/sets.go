package fixture

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sets/*.yaml
var sets embed.FS

// Names lists the embedded fixture sets.
func Names() []string {
	entries, err := fs.ReadDir(sets, "sets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Load parses an embedded fixture set by name.
func Load(name string) (*Definition, error) {
	data, err := sets.ReadFile("sets/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: unknown fixture set %q (have %s)", ErrInvalidFixture, name, strings.Join(Names(), ", "))
	}
	return Parse(data)
}

// internal/portaddr/parser.go
package portaddr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// portRegex is used to parse the port segment of an address, e.g. `value` or `inputs[1]`.
var portRegex = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)(?:\[(\d+)\])?$`)

// Parse creates a new Address by parsing its canonical string representation.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("port address cannot be empty")
	}

	nodePart, portPart, found := strings.Cut(raw, ".")
	if !found {
		return Address{}, fmt.Errorf("port address %q has no port segment", raw)
	}

	node, err := uuid.Parse(nodePart)
	if err != nil {
		return Address{}, fmt.Errorf("invalid node guid in port address %q: %w", raw, err)
	}

	matches := portRegex.FindStringSubmatch(portPart)
	if matches == nil {
		return Address{}, fmt.Errorf("invalid port segment format: %q", portPart)
	}

	addr := New(node, matches[1])
	if matches[2] != "" {
		index, err := strconv.Atoi(matches[2])
		if err != nil {
			// Unreachable due to regex `\d+`
			return Address{}, fmt.Errorf("internal error parsing index: %w", err)
		}
		addr.Index = index
	}
	return addr, nil
}

// MustParse is like Parse but panics on malformed input. It is intended for
// tests and static tables.
func MustParse(raw string) Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

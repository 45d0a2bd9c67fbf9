package taskid

import (
	"fmt"
	"regexp"
)

// Address is the structured identifier of a task in a grid:
// `task.<kind>.<name>`. Kind identifies the registered runner, Name the
// instance declared in the grid file.
type Address struct {
	Kind string
	Name string
}

// kindRegex and nameRegex bound the identifier grammar. Kinds are Go-ish
// lower_snake identifiers; names additionally allow dashes.
var (
	kindRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	nameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	addrRegex = regexp.MustCompile(`^task\.([a-z_][a-z0-9_]*)\.([A-Za-z0-9_-]+)$`)
)

// New validates kind and name and returns their Address.
func New(kind, name string) (Address, error) {
	if !kindRegex.MatchString(kind) {
		return Address{}, fmt.Errorf("invalid task kind: %q", kind)
	}
	if !nameRegex.MatchString(name) {
		return Address{}, fmt.Errorf("invalid task name: %q", name)
	}
	return Address{Kind: kind, Name: name}, nil
}

// String serializes the Address into its canonical form.
func (a Address) String() string {
	return fmt.Sprintf("task.%s.%s", a.Kind, a.Name)
}

// Parse creates an Address from its canonical string form.
func Parse(raw string) (Address, error) {
	matches := addrRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Address{}, fmt.Errorf("invalid task address format: %q", raw)
	}
	return Address{Kind: matches[1], Name: matches[2]}, nil
}

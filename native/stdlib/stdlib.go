// Package stdlib is a set of native functions commonly missing from the Jsonnet standard
// library. Register them on a session with Register and call them through std.native:
//
//	local regexMatch = std.native('regexMatch');
//	regexMatch('^v[0-9]+$', 'v12')
package stdlib

import (
	"fmt"

	"github.com/robbyt/go-jsonnetvm/native"
)

// Registrar is satisfied by *vm.Session.
type Registrar interface {
	RegisterNative(f native.Function) error
}

// Functions returns every function in the package.
func Functions() []native.Function {
	return []native.Function{
		native.Must("parseYaml", parseYaml, "str"),
		native.Must("escapeStringRegex", escapeStringRegex, "str"),
		native.Must("regexMatch", regexMatch, "pattern", "str"),
		native.Must("regexFind", regexFind, "pattern", "str"),
		native.Must("regexSubst", regexSubst, "pattern", "str", "replacement"),
		native.Must("sha256", sha256Hex, "str"),
		native.Must("semverCompare", semverCompare, "a", "b"),
		native.Must("semverSatisfies", semverSatisfies, "version", "constraint"),
		native.Must("shellQuote", shellQuote, "str"),
		native.Must("shellSplit", shellSplit, "str"),
		native.Must("uuidV5", uuidV5, "namespace", "name"),
	}
}

// Register adds every function to r.
func Register(r Registrar) error {
	for _, f := range Functions() {
		if err := r.RegisterNative(f); err != nil {
			return fmt.Errorf("failed to register %s: %w", f.Name, err)
		}
	}
	return nil
}

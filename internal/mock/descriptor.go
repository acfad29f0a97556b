// Package mock builds the graph of mock helpers a generated test needs and
// writes them into mock helper traits.
package mock

import (
	"strings"

	"github.com/cmmoran/phptestgen/internal/phpval"
)

const (
	methodPrefix = "create"
	nameSuffix   = "Mock"
)

// Descriptor is one synthesized mock helper method.
type Descriptor struct {
	// Class is the fully-qualified mocked type.
	Class string
	// Key identifies the descriptor within a run.
	Key string
	// ShortName is the local variable name used for instances of the mock.
	ShortName string
	// MethodName is the trait method creating the mock.
	MethodName string
	// Depth is the expansion level at first discovery, starting at 1.
	Depth int
	// Stub marks a back-reference to the class under test that is declared
	// but never expanded.
	Stub bool
	// Setup holds the statements building $mock, one line each.
	Setup []string
	// Args maps each mocked method to an empty return placeholder and Times
	// to its expected call count.
	Args  *phpval.Map
	Times *phpval.Map
}

// KeyOf returns the descriptor key of a class.
func KeyOf(fqn string) string {
	return ucfirst(strings.ReplaceAll(strings.TrimPrefix(fqn, `\`), `\`, "") + nameSuffix)
}

// ShortNameOf drops the project namespace and separators from fqn.
func ShortNameOf(fqn, projectNamespace string) string {
	fqn = strings.TrimPrefix(fqn, `\`)
	if projectNamespace != "" {
		prefix := strings.Trim(projectNamespace, `\`) + `\`
		if len(fqn) > len(prefix) && strings.EqualFold(fqn[:len(prefix)], prefix) {
			fqn = fqn[len(prefix):]
		}
	}
	return lcfirst(strings.ReplaceAll(fqn, `\`, "") + nameSuffix)
}

func newDescriptor(fqn, projectNamespace string, depth int) *Descriptor {
	short := ShortNameOf(fqn, projectNamespace)
	return &Descriptor{
		Class:      fqn,
		Key:        KeyOf(fqn),
		ShortName:  short,
		MethodName: methodPrefix + ucfirst(short),
		Depth:      depth,
		Args:       phpval.NewMap(),
		Times:      phpval.NewMap(),
	}
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lcfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

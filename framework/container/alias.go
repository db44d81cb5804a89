package container

import "strings"

// aliasTable maps alias → abstract. Every alias is set at most once to a
// single target and define refuses edges that would close a cycle, so
// canonicalize always terminates.
type aliasTable map[string]string

// define records alias → abstract. Redefining to the same canonical target
// is a no-op.
func (t aliasTable) define(abstract, alias string) error {
	target := t.canonicalize(abstract)
	if alias == abstract || target == alias {
		return &AliasConflictError{Alias: alias, Target: abstract}
	}
	if existing, ok := t[alias]; ok {
		if t.canonicalize(existing) == target {
			return nil
		}
		return &AliasConflictError{Alias: alias, Existing: existing, Target: abstract}
	}
	t[alias] = abstract
	return nil
}

// canonicalize follows alias edges until it reaches an id with none.
func (t aliasTable) canonicalize(id string) string {
	for {
		next, ok := t[id]
		if !ok {
			return id
		}
		id = next
	}
}

// DeriveAlias turns a fully qualified type name into the short alias the
// container registers automatically: the context prefix is stripped, path
// separators become dots and the result is lower-cased.
//
//	DeriveAlias("github.com/acme/shop/billing.Invoicer", "github.com/acme/shop/") // "billing.invoicer"
//	DeriveAlias(`App\Billing\Invoicer`, `App\`)                                   // "billing.invoicer"
func DeriveAlias(typeName, context string) string {
	name := strings.TrimPrefix(typeName, context)
	name = strings.NewReplacer(`\`, ".", "/", ".").Replace(name)
	return strings.ToLower(strings.Trim(name, "."))
}

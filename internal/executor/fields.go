package executor

import (
	"slices"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// fieldCollector implements CollectFields from the GraphQL execution
// algorithm. It only needs the document (for fragments) and the coerced
// variables (for @skip and @include), so resolvers reuse it through
// ResolveInfo while planning.
type fieldCollector struct {
	schema    *schema.Schema
	document  *language.QueryDocument
	variables map[string]any
}

// fieldGroups accumulates fields by response name in first-seen order.
type fieldGroups struct {
	list  []CollectedField
	index map[string]int
}

func (g *fieldGroups) add(f *language.Field) {
	name := f.Alias
	if name == "" {
		name = f.Name
	}
	if i, ok := g.index[name]; ok {
		g.list[i].Fields = append(g.list[i].Fields, f)
		return
	}
	g.index[name] = len(g.list)
	g.list = append(g.list, CollectedField{ResponseName: name, Fields: []*language.Field{f}})
}

// collect returns the fields of set that apply to objectType, grouped by
// response name.
func (c *fieldCollector) collect(objectType *schema.Type, set language.SelectionSet) []CollectedField {
	g := &fieldGroups{index: map[string]int{}}
	c.walk(objectType, set, g, map[string]bool{})
	return g.list
}

func (c *fieldCollector) walk(objectType *schema.Type, set language.SelectionSet, g *fieldGroups, seen map[string]bool) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				g.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition, objectType) {
				c.walk(objectType, sel.SelectionSet, g, seen)
			}
		case *language.FragmentSpread:
			if seen[sel.Name] || !c.included(sel.Directives) {
				continue
			}
			seen[sel.Name] = true
			def := c.document.Fragments.ForName(sel.Name)
			if def != nil && c.included(def.Directives) && c.applies(def.TypeCondition, objectType) {
				c.walk(objectType, def.SelectionSet, g, seen)
			}
		}
	}
}

// applies reports whether a fragment on typeCondition applies to
// objectType, directly or through an interface or union.
func (c *fieldCollector) applies(typeCondition string, objectType *schema.Type) bool {
	if typeCondition == "" || typeCondition == objectType.Name || slices.Contains(objectType.Interfaces, typeCondition) {
		return true
	}
	union := c.schema.Types[typeCondition]
	return union != nil && union.Kind == schema.TypeKindUnion && slices.Contains(union.PossibleTypes, objectType.Name)
}

// included evaluates @skip and @include.
func (c *fieldCollector) included(directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && c.flag(d) == true {
		return false
	}
	if d := directives.ForName("include"); d != nil && c.flag(d) == false {
		return false
	}
	return true
}

// flag returns the "if" argument of d, or nil when it is missing.
func (c *fieldCollector) flag(d *language.Directive) any {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return nil
	}
	return valueFromAST(arg.Value, c.variables)
}

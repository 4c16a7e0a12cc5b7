package language

import (
	"bytes"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FormatSelectionSet renders a selection set as the body of an anonymous
// query operation.
func FormatSelectionSet(set SelectionSet) string {
	return formatDocument(&QueryDocument{
		Operations: ast.OperationList{{Operation: ast.Query, SelectionSet: set}},
	})
}

// FormatFragment renders a single fragment definition.
func FormatFragment(f *FragmentDefinition) string {
	return formatDocument(&QueryDocument{Fragments: ast.FragmentDefinitionList{f}})
}

func formatDocument(doc *QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

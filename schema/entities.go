package schema

import (
	"fmt"
	"os"
	"strings"

	"github.com/vektah/gqlparser/ast"
	"github.com/vektah/gqlparser/parser"
	"go.uber.org/zap"
)

type EntityDesc struct {
	Name          string
	Fields        map[string]*Field
	orderedFields []*Field
	Immutable     bool
}

type Field struct {
	Name string
	Type FieldType

	Nullable bool
	Array    bool
}

// OrderedFields returns the entity fields in schema declaration order, this
// is the order in which they contribute to a record hash.
func (e *EntityDesc) OrderedFields() []*Field {
	return e.orderedFields
}

// ContributorNames returns the record keys contributing to the hash of an
// entity record, in declaration order. When snakeCase is set, schema field
// names are converted to their snake case form first.
func (e *EntityDesc) ContributorNames(snakeCase bool) []string {
	out := make([]string, len(e.orderedFields))
	for i, f := range e.orderedFields {
		out[i] = f.Name
		if snakeCase {
			out[i] = NormalizeField(f.Name)
		}
	}

	return out
}

// field types
type FieldType string

const FieldTypeID FieldType = "ID"
const FieldTypeString FieldType = "String"
const FieldTypeInt FieldType = "Int"
const FieldTypeFloat FieldType = "Float"
const FieldTypeBoolean FieldType = "Boolean"
const FieldTypeBigInt FieldType = "BigInt"
const FieldTypeBigDecimal FieldType = "BigDecimal"
const FieldTypeBytes FieldType = "Bytes"

func GetEntityNamesFromSchema(filename string) (entities []string, err error) {
	graphqlSchemaDoc, err := readSchema(filename)
	if err != nil {
		return nil, err
	}

	for _, def := range graphqlSchemaDoc.Definitions {
		for _, dir := range def.Directives {
			if dir.Name == "entity" {
				entities = append(entities, strings.ToLower(def.Name))
			}
		}
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no entities found from graphql schema file")
	}
	return
}

func GetEntitiesFromSchema(filename string) (entities []*EntityDesc, err error) {
	graphqlSchemaDoc, err := readSchema(filename)
	if err != nil {
		return nil, err
	}

	return entitiesFromDocument(graphqlSchemaDoc)
}

// ParseEntities reads the entities of a GraphQL schema given as a string.
func ParseEntities(content string) ([]*EntityDesc, error) {
	graphqlSchemaDoc, gqlErr := parser.ParseSchema(&ast.Source{
		Input: content,
	})
	if gqlErr != nil {
		return nil, fmt.Errorf("parsing gql: %w", gqlErr)
	}

	return entitiesFromDocument(graphqlSchemaDoc)
}

// FindEntity returns the entity named name, entity names are lower cased.
func FindEntity(entities []*EntityDesc, name string) (*EntityDesc, error) {
	for _, ent := range entities {
		if ent.Name == strings.ToLower(name) {
			return ent, nil
		}
	}

	return nil, fmt.Errorf("cannot find entity %q in schema", name)
}

func readSchema(filename string) (*ast.SchemaDocument, error) {
	graphqlSchemaContent, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	graphqlSchemaDoc, gqlErr := parser.ParseSchema(&ast.Source{
		Name:  filename,
		Input: string(graphqlSchemaContent),
	})
	if gqlErr != nil {
		return nil, fmt.Errorf("parsing gql: %w", gqlErr)
	}

	return graphqlSchemaDoc, nil
}

func entitiesFromDocument(doc *ast.SchemaDocument) (entities []*EntityDesc, err error) {
	for _, def := range doc.Definitions {
		ent, err := parseEntity(def)
		if err != nil {
			return nil, err
		}
		if ent != nil {
			entities = append(entities, ent)
		}
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("no entities found from graphql schema file")
	}

	return
}

func parseEntity(def *ast.Definition) (*EntityDesc, error) {
	if def.Kind != ast.Object {
		return nil, nil
	}
	var isEntity bool
	var immutable bool
	for _, dir := range def.Directives {
		if dir.Name == "entity" {
			isEntity = true

			for _, arg := range dir.Arguments {
				switch arg.Name {
				case "immutable":
					immutable = true
				default:
					return nil, fmt.Errorf("invalid argument %q for directive @%q on field %s", arg.Name, dir.Name, def.Name)
				}
			}

			break
		}
	}
	if !isEntity {
		return nil, nil
	}

	out := &EntityDesc{
		Fields:    make(map[string]*Field),
		Name:      strings.ToLower(def.Name),
		Immutable: immutable,
	}

	for _, field := range def.Fields {
		fieldDef, err := ParseFieldDefinition(field)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", def.Name, err)
		}
		if fieldDef == nil {
			continue
		}
		if _, found := out.Fields[fieldDef.Name]; found {
			return nil, fmt.Errorf("entity %q: field %q declared more than once", def.Name, fieldDef.Name)
		}

		out.Fields[fieldDef.Name] = fieldDef
		out.orderedFields = append(out.orderedFields, fieldDef)
	}

	zlog.Debug("parsed entity", zap.String("entity", out.Name), zap.Int("field_count", len(out.orderedFields)), zap.Bool("immutable", immutable))

	return out, nil
}

func ParseFieldDefinition(field *ast.FieldDefinition) (*Field, error) {
	f := &Field{
		Name:  field.Name,
		Type:  toFieldType(field.Type.Name()),
		Array: bool(field.Type.Elem != nil),
	}
	if field.Type.Elem != nil {
		f.Nullable = !field.Type.Elem.NonNull
	} else {
		f.Nullable = !field.Type.NonNull
	}

	for _, directive := range field.Directives {
		if directive.Name == "derivedFrom" {
			return nil, nil
		}
	}

	return f, nil
}

func toFieldType(in string) FieldType {
	switch in {
	case string(FieldTypeID):
		return FieldTypeID
	case string(FieldTypeString):
		return FieldTypeString
	case string(FieldTypeInt):
		return FieldTypeInt
	case string(FieldTypeFloat):
		return FieldTypeFloat
	case string(FieldTypeBoolean):
		return FieldTypeBoolean
	case string(FieldTypeBigInt):
		return FieldTypeBigInt
	case string(FieldTypeBigDecimal):
		return FieldTypeBigDecimal
	case string(FieldTypeBytes):
		return FieldTypeBytes
	default:
		return FieldTypeID // when referencing another object
	}
}

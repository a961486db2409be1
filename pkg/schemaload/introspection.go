package schemaload

import (
	"encoding/json"
	"fmt"
	"strings"
)

// introspectionQuery is the standard GraphQL introspection query, ported
// verbatim from internal/loader/universal.go's getIntrospectionQuery.
const introspectionQuery = `
    query IntrospectionQuery {
      __schema {
        queryType { name }
        mutationType { name }
        subscriptionType { name }
        types {
          ...FullType
        }
        directives {
          name
          description
          locations
          args {
            ...InputValue
          }
        }
      }
    }

    fragment FullType on __Type {
      kind
      name
      description
      fields(includeDeprecated: true) {
        name
        description
        args {
          ...InputValue
        }
        type {
          ...TypeRef
        }
        isDeprecated
        deprecationReason
      }
      inputFields {
        ...InputValue
      }
      interfaces {
        ...TypeRef
      }
      enumValues(includeDeprecated: true) {
        name
        description
        isDeprecated
        deprecationReason
      }
      possibleTypes {
        ...TypeRef
      }
    }

    fragment InputValue on __InputValue {
      name
      description
      type { ...TypeRef }
      defaultValue
    }

    fragment TypeRef on __Type {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
                ofType {
                  kind
                  name
                  ofType {
                    kind
                    name
                  }
                }
              }
            }
          }
        }
      }
    }
  `

// introspectionToSDL converts a raw __schema introspection payload into an
// SDL document, reimplementing internal/loader/universal.go's
// introspectionToSDL type-by-type rather than importing it (that file's
// package also pulls in the half-implemented graphql-go-based schema
// loader this module replaced entirely).
func introspectionToSDL(schemaJSON json.RawMessage) (string, error) {
	var introspection struct {
		QueryType struct {
			Name string `json:"name"`
		} `json:"queryType"`
		MutationType *struct {
			Name string `json:"name"`
		} `json:"mutationType"`
		SubscriptionType *struct {
			Name string `json:"name"`
		} `json:"subscriptionType"`
		Types []struct {
			Kind        string `json:"kind"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Fields      []struct {
				Name string `json:"name"`
				Args []struct {
					Name         string          `json:"name"`
					Type         json.RawMessage `json:"type"`
					DefaultValue string          `json:"defaultValue"`
				} `json:"args"`
				Type              json.RawMessage `json:"type"`
				IsDeprecated      bool            `json:"isDeprecated"`
				DeprecationReason string          `json:"deprecationReason"`
			} `json:"fields"`
			InputFields []struct {
				Name         string          `json:"name"`
				Type         json.RawMessage `json:"type"`
				DefaultValue string          `json:"defaultValue"`
			} `json:"inputFields"`
			Interfaces []struct {
				Name string `json:"name"`
			} `json:"interfaces"`
			EnumValues []struct {
				Name              string `json:"name"`
				IsDeprecated      bool   `json:"isDeprecated"`
				DeprecationReason string `json:"deprecationReason"`
			} `json:"enumValues"`
			PossibleTypes []struct {
				Name string `json:"name"`
			} `json:"possibleTypes"`
		} `json:"types"`
	}

	if err := json.Unmarshal(schemaJSON, &introspection); err != nil {
		return "", fmt.Errorf("parsing introspection JSON: %w", err)
	}

	var sb strings.Builder

	if introspection.QueryType.Name != "Query" ||
		(introspection.MutationType != nil && introspection.MutationType.Name != "Mutation") ||
		(introspection.SubscriptionType != nil && introspection.SubscriptionType.Name != "Subscription") {
		sb.WriteString("schema {\n")
		sb.WriteString(fmt.Sprintf("  query: %s\n", introspection.QueryType.Name))
		if introspection.MutationType != nil {
			sb.WriteString(fmt.Sprintf("  mutation: %s\n", introspection.MutationType.Name))
		}
		if introspection.SubscriptionType != nil {
			sb.WriteString(fmt.Sprintf("  subscription: %s\n", introspection.SubscriptionType.Name))
		}
		sb.WriteString("}\n\n")
	}

	for _, typ := range introspection.Types {
		if strings.HasPrefix(typ.Name, "__") {
			continue
		}
		if typ.Kind == "SCALAR" && isBuiltInScalar(typ.Name) {
			continue
		}

		if typ.Description != "" {
			sb.WriteString(fmt.Sprintf(`"""%s"""`+"\n", typ.Description))
		}

		switch typ.Kind {
		case "OBJECT":
			sb.WriteString(fmt.Sprintf("type %s", typ.Name))
			if len(typ.Interfaces) > 0 {
				sb.WriteString(" implements")
				for i, iface := range typ.Interfaces {
					if i > 0 {
						sb.WriteString(" &")
					}
					sb.WriteString(" " + iface.Name)
				}
			}
			sb.WriteString(" {\n")
			for _, field := range typ.Fields {
				sb.WriteString(fmt.Sprintf("  %s", field.Name))
				writeArgs(&sb, field.Args)
				sb.WriteString(fmt.Sprintf(": %s", formatType(field.Type)))
				if field.IsDeprecated {
					sb.WriteString(fmt.Sprintf(` @deprecated(reason: "%s")`, field.DeprecationReason))
				}
				sb.WriteString("\n")
			}
			sb.WriteString("}\n\n")

		case "INTERFACE":
			sb.WriteString(fmt.Sprintf("interface %s {\n", typ.Name))
			for _, field := range typ.Fields {
				sb.WriteString(fmt.Sprintf("  %s", field.Name))
				writeArgs(&sb, field.Args)
				sb.WriteString(fmt.Sprintf(": %s\n", formatType(field.Type)))
			}
			sb.WriteString("}\n\n")

		case "UNION":
			sb.WriteString(fmt.Sprintf("union %s = ", typ.Name))
			for i, possible := range typ.PossibleTypes {
				if i > 0 {
					sb.WriteString(" | ")
				}
				sb.WriteString(possible.Name)
			}
			sb.WriteString("\n\n")

		case "ENUM":
			sb.WriteString(fmt.Sprintf("enum %s {\n", typ.Name))
			for _, value := range typ.EnumValues {
				sb.WriteString(fmt.Sprintf("  %s", value.Name))
				if value.IsDeprecated {
					sb.WriteString(fmt.Sprintf(` @deprecated(reason: "%s")`, value.DeprecationReason))
				}
				sb.WriteString("\n")
			}
			sb.WriteString("}\n\n")

		case "INPUT_OBJECT":
			sb.WriteString(fmt.Sprintf("input %s {\n", typ.Name))
			for _, field := range typ.InputFields {
				sb.WriteString(fmt.Sprintf("  %s: %s", field.Name, formatType(field.Type)))
				if field.DefaultValue != "" {
					sb.WriteString(fmt.Sprintf(" = %s", field.DefaultValue))
				}
				sb.WriteString("\n")
			}
			sb.WriteString("}\n\n")

		case "SCALAR":
			sb.WriteString(fmt.Sprintf("scalar %s\n\n", typ.Name))
		}
	}

	return sb.String(), nil
}

func writeArgs(sb *strings.Builder, args []struct {
	Name         string          `json:"name"`
	Type         json.RawMessage `json:"type"`
	DefaultValue string          `json:"defaultValue"`
}) {
	if len(args) == 0 {
		return
	}
	sb.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", arg.Name, formatType(arg.Type)))
		if arg.DefaultValue != "" {
			sb.WriteString(fmt.Sprintf(" = %s", arg.DefaultValue))
		}
	}
	sb.WriteString(")")
}

// formatType formats a GraphQL type from introspection JSON, ported
// verbatim from universal.go's formatType.
func formatType(typeJSON json.RawMessage) string {
	var t struct {
		Kind   string          `json:"kind"`
		Name   string          `json:"name"`
		OfType json.RawMessage `json:"ofType"`
	}
	if err := json.Unmarshal(typeJSON, &t); err != nil {
		return "Unknown"
	}

	switch t.Kind {
	case "NON_NULL":
		return formatType(t.OfType) + "!"
	case "LIST":
		return "[" + formatType(t.OfType) + "]"
	default:
		return t.Name
	}
}

// isBuiltInScalar checks if a scalar is one of GraphQL's five built-ins,
// ported verbatim from universal.go's isBuiltInScalar.
func isBuiltInScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	default:
		return false
	}
}

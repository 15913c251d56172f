package oas

import (
	"fmt"
	"strings"
)

// DefinitionParseError is returned when the parser delegate reports one or
// more messages for a definition. No partial result accompanies it.
type DefinitionParseError struct {
	Messages []string
}

func (e *DefinitionParseError) Error() string {
	return fmt.Sprintf("error occurred while parsing OpenAPI 3 definition: %s", strings.Join(e.Messages, "; "))
}

// UnresolvedScopeError is returned when an operation references a single
// scope key that the document does not declare.
type UnresolvedScopeError struct {
	Key  string
	Verb string
	Path string
}

func (e *UnresolvedScopeError) Error() string {
	return fmt.Sprintf("scope '%s' of %s %s not found", e.Key, e.Verb, e.Path)
}

// MissingInfoError is returned when generation input lacks required
// descriptive fields.
type MissingInfoError struct {
	Fields []string
}

func (e *MissingInfoError) Error() string {
	return fmt.Sprintf("api definition is missing required fields: %s", strings.Join(e.Fields, ", "))
}

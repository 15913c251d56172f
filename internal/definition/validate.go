package definition

import (
	"context"
	"strings"

	"github.com/chr1sbest/oasync/internal/oas"
)

// Error codes of ErrorItem.
const (
	ErrorCodeParse       = "parse_error"
	ErrorCodeInvalidOAS3 = "invalid_oas3"
)

// ErrorItem is one reason a definition failed validation.
type ErrorItem struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

// ValidationResult is the outcome of validating a definition. Parser messages
// end up in ErrorItems rather than in an error.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	ErrorItems []ErrorItem `json:"errorItems,omitempty"`

	OpenAPIVersion string `json:"openAPIVersion,omitempty"`
	Title          string `json:"title,omitempty"`
	Version        string `json:"version,omitempty"`
	Description    string `json:"description,omitempty"`

	// Content is the canonical JSON rendering of the definition, set only
	// when requested.
	Content string `json:"content,omitempty"`
}

// validateDefinition parses data with p and reports the outcome. The error
// return is reserved for failures to render Content.
func validateDefinition(ctx context.Context, p oas.Parser, s oas.Serializer, data []byte, returnContent bool) (*ValidationResult, error) {
	doc, messages := p.Parse(ctx, data)
	if len(messages) > 0 {
		result := &ValidationResult{Valid: false}
		for _, msg := range messages {
			result.ErrorItems = append(result.ErrorItems, ErrorItem{Code: ErrorCodeParse, Message: msg})
			if strings.Contains(msg, oas.MissingOpenAPIMessage) {
				result.ErrorItems = append(result.ErrorItems, ErrorItem{
					Code:        ErrorCodeInvalidOAS3,
					Message:     "Invalid OpenAPI V3 definition found",
					Description: "The provided content is not a recognizable OpenAPI 3 definition",
				})
			}
		}
		return result, nil
	}

	result := &ValidationResult{
		Valid:          true,
		OpenAPIVersion: doc.OpenAPI,
		Title:          doc.Info.Title,
		Version:        doc.Info.Version,
		Description:    doc.Info.Description,
	}
	if returnContent {
		content, err := s.Serialize(doc)
		if err != nil {
			return nil, err
		}
		result.Content = string(content)
	}
	return result, nil
}

package oas

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// OperationExtensions is the typed view of an operation's vendor extensions.
// The platform owned keys are lifted into fields; every other extension is
// kept untouched in Passthrough.
type OperationExtensions struct {
	// Present is false when the operation has no extension block at all.
	Present bool

	AuthType        *string
	ThrottlingTier  *string
	MediationScript *string
	Scope           *string

	Passthrough map[string]any
}

// DecodeOperationExtensions splits raw into the recognized keys and the
// passthrough bag. raw is not modified.
func DecodeOperationExtensions(raw map[string]any) OperationExtensions {
	ext := OperationExtensions{
		Present:     len(raw) > 0,
		Passthrough: map[string]any{},
	}
	for k, v := range raw {
		switch k {
		case ExtAuthType:
			ext.AuthType = stringValue(v)
		case ExtThrottlingTier:
			ext.ThrottlingTier = stringValue(v)
		case ExtMediationScript:
			ext.MediationScript = stringValue(v)
		case ExtScope:
			ext.Scope = stringValue(v)
		default:
			ext.Passthrough[k] = v
		}
	}
	return ext
}

// Encode renders the extensions back into a raw map. Unset recognized keys
// are omitted. It returns nil when nothing is left.
func (e OperationExtensions) Encode() map[string]any {
	raw := make(map[string]any, len(e.Passthrough)+4)
	for k, v := range e.Passthrough {
		raw[k] = v
	}
	set := func(key string, v *string) {
		if v != nil {
			raw[key] = *v
		}
	}
	set(ExtAuthType, e.AuthType)
	set(ExtThrottlingTier, e.ThrottlingTier)
	set(ExtMediationScript, e.MediationScript)
	set(ExtScope, e.Scope)

	if len(raw) == 0 {
		return nil
	}
	return raw
}

func stringValue(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// LegacyScope is one entry of the legacy x-wso2-scopes list.
type LegacyScope struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Roles       string `json:"roles"`
}

// LegacySecurityDefinition is one named entry of the legacy x-wso2-security
// block.
type LegacySecurityDefinition struct {
	Scopes []LegacyScope `json:"x-wso2-scopes"`
}

// LegacySecurity is the decoded x-wso2-security root extension, keyed by
// security definition name.
type LegacySecurity map[string]LegacySecurityDefinition

// Names returns the definition names in sorted order.
func (l LegacySecurity) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeLegacySecurity decodes the value of the x-wso2-security extension.
// A nil value decodes to an empty block.
func DecodeLegacySecurity(v any) (LegacySecurity, error) {
	sec := LegacySecurity{}
	if v == nil {
		return sec, nil
	}
	if err := convert(v, &sec); err != nil {
		return nil, errors.Wrapf(err, "decode %s", ExtLegacySecurity)
	}
	return sec, nil
}

// DecodeScopeBindings decodes the value of the x-scopes-bindings extension
// into scope name to roles.
func DecodeScopeBindings(v any) (map[string]string, error) {
	bindings := map[string]string{}
	if v == nil {
		return bindings, nil
	}
	var raw map[string]any
	if err := convert(v, &raw); err != nil {
		return nil, errors.Wrapf(err, "decode %s", ExtScopeBindings)
	}
	for name, roles := range raw {
		if s := stringValue(roles); s != nil {
			bindings[name] = *s
		}
	}
	return bindings, nil
}

// EncodeScopeBindings renders bindings as the x-scopes-bindings value.
func EncodeScopeBindings(bindings map[string]string) map[string]any {
	raw := make(map[string]any, len(bindings))
	for name, roles := range bindings {
		raw[name] = roles
	}
	return raw
}

// convert re-decodes an already decoded extension value into a typed target.
func convert(in, out any) error {
	raw, err := jsonAPI.Marshal(in)
	if err != nil {
		return err
	}
	return jsonAPI.Unmarshal(raw, out)
}

package schema

// Clone returns a deep copy of the template. Sections, fields, options,
// show-if rules, and default values never share memory with the original.
func (t Template) Clone() Template {
	out := t
	if t.Sections == nil {
		return out
	}
	out.Sections = make([]Section, len(t.Sections))
	for i, section := range t.Sections {
		out.Sections[i] = section.Clone()
	}
	return out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	if s.Fields == nil {
		return out
	}
	out.Fields = make([]Field, len(s.Fields))
	for i, field := range s.Fields {
		out.Fields[i] = field.Clone()
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	out.DefaultValue = CloneValue(f.DefaultValue)
	if f.ShowIf != nil {
		rule := *f.ShowIf
		rule.Value = CloneValue(f.ShowIf.Value)
		out.ShowIf = &rule
	}
	return out
}

// CloneValue deep copies map and slice values found in captured data or
// default values. Scalars are returned as-is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = CloneValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

// CloneData copies a captured data map.
func CloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = CloneValue(v)
	}
	return out
}

package components

import (
	"bytes"
	"html"
	"slices"
	"strconv"
	"strings"
)

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// components used by the vanilla renderer.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(NameInput, Descriptor{Renderer: inputRenderer})
	registry.MustRegister(NameTextarea, Descriptor{Renderer: textareaRenderer})
	registry.MustRegister(NameSelect, Descriptor{Renderer: selectRenderer})
	registry.MustRegister(NameRadio, Descriptor{Renderer: radioRenderer})
	registry.MustRegister(NameCheckbox, Descriptor{Renderer: checkboxRenderer})
	registry.MustRegister(NameUpload, Descriptor{Renderer: uploadRenderer})

	return registry
}

func inputRenderer(buf *bytes.Buffer, c Control) error {
	inputType := c.InputType
	if inputType == "" {
		inputType = "text"
	}
	buf.WriteString(`<input type="`)
	buf.WriteString(html.EscapeString(inputType))
	buf.WriteString(`"`)
	writeCommonAttrs(buf, c)
	if inputType == "number" {
		buf.WriteString(` step="any"`)
	}
	if c.Value != "" {
		writeAttr(buf, "value", c.Value)
	}
	buf.WriteString(`>`)
	return nil
}

func textareaRenderer(buf *bytes.Buffer, c Control) error {
	buf.WriteString(`<textarea rows="4"`)
	writeCommonAttrs(buf, c)
	buf.WriteString(`>`)
	buf.WriteString(html.EscapeString(c.Value))
	buf.WriteString(`</textarea>`)
	return nil
}

func selectRenderer(buf *bytes.Buffer, c Control) error {
	buf.WriteString(`<select`)
	writeCommonAttrs(buf, c)
	buf.WriteString(`>`)
	buf.WriteString(`<option value=""></option>`)
	for _, option := range c.Field.Options {
		buf.WriteString(`<option`)
		writeAttr(buf, "value", option)
		if option == c.Value {
			buf.WriteString(` selected`)
		}
		buf.WriteString(`>`)
		buf.WriteString(html.EscapeString(option))
		buf.WriteString(`</option>`)
	}
	buf.WriteString(`</select>`)
	return nil
}

func radioRenderer(buf *bytes.Buffer, c Control) error {
	buf.WriteString(`<div class="form-choices" role="radiogroup">`)
	for idx, option := range c.Field.Options {
		id := c.ID() + "-" + strconv.Itoa(idx)
		buf.WriteString(`<label`)
		writeAttr(buf, "for", id)
		buf.WriteString(`><input type="radio"`)
		writeAttr(buf, "id", id)
		writeAttr(buf, "name", c.Path)
		writeAttr(buf, "value", option)
		if option == c.Value {
			buf.WriteString(` checked`)
		}
		if c.Readonly {
			buf.WriteString(` disabled`)
		}
		if c.Field.Required && idx == 0 {
			buf.WriteString(` required`)
		}
		buf.WriteString(`> `)
		buf.WriteString(html.EscapeString(option))
		buf.WriteString(`</label>`)
	}
	buf.WriteString(`</div>`)
	return nil
}

func checkboxRenderer(buf *bytes.Buffer, c Control) error {
	if len(c.Field.Options) == 0 {
		buf.WriteString(`<input type="checkbox" value="true"`)
		writeCommonAttrs(buf, c)
		if c.Checked {
			buf.WriteString(` checked`)
		}
		buf.WriteString(`>`)
		return nil
	}
	buf.WriteString(`<div class="form-choices">`)
	for idx, option := range c.Field.Options {
		id := c.ID() + "-" + strconv.Itoa(idx)
		buf.WriteString(`<label`)
		writeAttr(buf, "for", id)
		buf.WriteString(`><input type="checkbox"`)
		writeAttr(buf, "id", id)
		writeAttr(buf, "name", c.Path)
		writeAttr(buf, "value", option)
		if slices.Contains(c.Values, option) {
			buf.WriteString(` checked`)
		}
		if c.Readonly {
			buf.WriteString(` disabled`)
		}
		buf.WriteString(`> `)
		buf.WriteString(html.EscapeString(option))
		buf.WriteString(`</label>`)
	}
	buf.WriteString(`</div>`)
	return nil
}

// uploadRenderer keeps existing references as hidden inputs next to the
// file picker.
func uploadRenderer(buf *bytes.Buffer, c Control) error {
	for _, ref := range c.Values {
		buf.WriteString(`<input type="hidden"`)
		writeAttr(buf, "name", c.Path)
		writeAttr(buf, "value", ref)
		buf.WriteString(`>`)
	}
	buf.WriteString(`<input type="file" accept="image/*"`)
	writeAttr(buf, "id", c.ID())
	writeAttr(buf, "name", c.Path)
	if c.InputType == "multiple" {
		buf.WriteString(` multiple`)
	}
	if c.Field.Required && len(c.Values) == 0 {
		buf.WriteString(` required`)
	}
	if c.Readonly {
		buf.WriteString(` disabled`)
	}
	buf.WriteString(`>`)
	if len(c.Values) > 0 {
		buf.WriteString(`<ul class="form-refs">`)
		for _, ref := range c.Values {
			buf.WriteString(`<li>`)
			buf.WriteString(html.EscapeString(ref))
			buf.WriteString(`</li>`)
		}
		buf.WriteString(`</ul>`)
	}
	return nil
}

func writeCommonAttrs(buf *bytes.Buffer, c Control) {
	writeAttr(buf, "id", c.ID())
	writeAttr(buf, "name", c.Path)
	if c.Field.Required {
		buf.WriteString(` required`)
	}
	if c.Readonly {
		buf.WriteString(` readonly`)
	}
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(html.EscapeString(strings.TrimSpace(value)))
	buf.WriteByte('"')
}

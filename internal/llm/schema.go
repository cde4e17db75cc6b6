package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled schemas by Format.Name
var schemas sync.Map

// checkFormat validates text against f. A nil format accepts anything.
func checkFormat(provider string, f *Format, text string) error {
	if f == nil {
		return nil
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return invalidResponse(provider, text, "not JSON: %w", err)
	}
	sch, err := compileFormat(f)
	if err != nil {
		return invalidResponse(provider, text, "schema %q: %w", f.Name, err)
	}
	if err := sch.Validate(doc); err != nil {
		return invalidResponse(provider, text, "does not match %q: %w", f.Name, err)
	}
	return nil
}

func compileFormat(f *Format) (*jsonschema.Schema, error) {
	if v, ok := schemas.Load(f.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	raw, err := json.Marshal(f.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	url := "mem://examcoach/" + f.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, err
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	schemas.Store(f.Name, sch)
	return sch, nil
}

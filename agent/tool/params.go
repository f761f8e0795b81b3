package tool

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"
)

// Param declares one tool argument. The same declaration feeds the model-facing
// ToolInfo and the JSON schema used to validate incoming arguments.
type Param struct {
	Name     string
	Type     schema.DataType
	Desc     string
	Required bool
}

func paramsOneOf(params []Param) *schema.ParamsOneOf {
	if len(params) == 0 {
		return nil
	}
	infos := make(map[string]*schema.ParameterInfo, len(params))
	for _, p := range params {
		infos[p.Name] = &schema.ParameterInfo{
			Type:     p.Type,
			Desc:     p.Desc,
			Required: p.Required,
		}
	}
	return schema.NewParamsOneOfByParams(infos)
}

func compileArgsSchema(params []Param) (*gojsonschema.Schema, error) {
	properties := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		// Models routinely send null for optional arguments they do not use.
		var typ any = string(p.Type)
		if !p.Required {
			typ = []string{string(p.Type), "null"}
		}
		properties[p.Name] = map[string]any{
			"type":        typ,
			"description": p.Desc,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	// Undeclared keys are tolerated and dropped on decode.
	schemaMap := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

// decodeArgs validates the raw JSON arguments against the compiled schema and
// decodes them into the typed argument struct.
func decodeArgs[A any](tool Name, argsSchema *gojsonschema.Schema, raw string) (A, error) {
	var args A

	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return args, validationError("Argumentos inválidos para %s: se esperaba un objeto JSON", tool)
	}
	if generic == nil {
		generic = map[string]any{}
	}

	if argsSchema != nil {
		result, err := argsSchema.Validate(gojsonschema.NewGoLoader(generic))
		if err != nil {
			return args, validationError("Argumentos inválidos para %s: %v", tool, err)
		}
		if !result.Valid() {
			problems := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				problems = append(problems, e.String())
			}
			return args, validationError("Argumentos inválidos para %s: %s", tool, strings.Join(problems, "; "))
		}
	}

	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return args, validationError("Argumentos inválidos para %s: %v", tool, err)
	}
	return args, nil
}

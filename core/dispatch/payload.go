package dispatch

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rescueroute/fleetsim/core/model"
)

//go:embed decision_schema.json
var decisionSchemaJSON []byte

var decisionSchema = mustCompileDecisionSchema()

func mustCompileDecisionSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("decision_schema.json", bytes.NewReader(decisionSchemaJSON)); err != nil {
		panic(fmt.Sprintf("dispatch: add decision schema: %v", err))
	}
	s, err := c.Compile("decision_schema.json")
	if err != nil {
		panic(fmt.Sprintf("dispatch: compile decision schema: %v", err))
	}
	return s
}

// ParseDecision validates a raw decision payload against the schema and
// decodes it. The returned Decision has no ID; the clock assigns one on
// submission.
func ParseDecision(raw []byte) (model.Decision, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return model.Decision{}, fmt.Errorf("decision payload: %w", err)
	}
	if err := decisionSchema.Validate(generic); err != nil {
		return model.Decision{}, fmt.Errorf("decision payload: %w", err)
	}
	var dec model.Decision
	if err := json.Unmarshal(raw, &dec); err != nil {
		return model.Decision{}, fmt.Errorf("decision payload: %w", err)
	}
	return dec, nil
}

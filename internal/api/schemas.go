// JSON Schemas validating write payloads at the API boundary.
package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const decideSchema = `{
	"type": "object",
	"required": ["agentId", "context", "options"],
	"properties": {
		"agentId": {"type": "string", "minLength": 1},
		"context": {"type": "string", "minLength": 1},
		"options": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "description"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"riskLevel": {"type": "number", "minimum": 0, "maximum": 100},
					"potentialReward": {"type": "number", "minimum": 0, "maximum": 100},
					"requiresCooperation": {"type": "boolean"},
					"requiresConflict": {"type": "boolean"},
					"counterpartyAgentId": {"type": "string"}
				}
			}
		}
	}
}`

const businessEventSchema = `{
	"type": "object",
	"required": ["id", "type", "companyId", "magnitude"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"type": {"type": "string", "enum": [
			"bankruptcy", "merger", "market_crash", "expansion",
			"layoff", "innovation", "scandal", "success"
		]},
		"companyId": {"type": "string", "minLength": 1},
		"cityId": {"type": "string"},
		"magnitude": {"type": "number", "minimum": 0, "maximum": 100},
		"details": {"type": "string"}
	}
}`

const scheduleEventSchema = `{
	"type": "object",
	"required": ["category", "title", "importance", "triggerTurn", "duration"],
	"properties": {
		"category": {"type": "string", "enum": [
			"conflict", "natural", "political", "economic",
			"technological", "social", "discovery"
		]},
		"title": {"type": "string", "minLength": 1},
		"importance": {"type": "number", "minimum": 0, "maximum": 100},
		"cityId": {"type": "string"},
		"triggerTurn": {"type": "integer", "minimum": 1},
		"duration": {"type": "integer", "minimum": 1},
		"recurring": {"type": "boolean"},
		"interval": {"type": "integer", "minimum": 0}
	}
}`

type schemas struct {
	decide        *jsonschema.Schema
	businessEvent *jsonschema.Schema
	scheduleEvent *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	out := &schemas{}
	for _, def := range []struct {
		name   string
		source string
		target **jsonschema.Schema
	}{
		{"decide.json", decideSchema, &out.decide},
		{"business_event.json", businessEventSchema, &out.businessEvent},
		{"schedule_event.json", scheduleEventSchema, &out.scheduleEvent},
	} {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(def.name, strings.NewReader(def.source)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", def.name, err)
		}
		s, err := c.Compile(def.name)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", def.name, err)
		}
		*def.target = s
	}
	return out, nil
}

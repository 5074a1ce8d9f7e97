package planner

import (
	"fmt"
	"strings"
)

// planSystemPrompt — системный промпт построения графа.
// Каталог узлов перечисляет ровно те виды и параметры, которые
// понимает движок; модель не должна изобретать свои.
const planSystemPrompt = `You are a data workflow planner. Given table schemas and a user request,
you produce a workflow graph as JSON. Respond with JSON only, no prose.

The graph format:
{"nodes": [{"id": "...", "kind": "...", "params": {...}}],
 "edges": [{"source": "...", "target": "...", "slot": 0}]}

Node kinds and their params:
- source: entry point for an uploaded table. params: {"dataset_id": "<source name>", "sheet": ""}.
  Has no inputs. Use the source names given in the user message as dataset_id.
- select: keep only listed columns, in order. params: {"columns": ["a", "b"]}. One input.
- filter: keep rows matching a predicate. params: {"column": "...", "op": "...", "value": ...}.
  Ops: eq, ne, gt, lt, ge, le, contains, is_empty (no value). One input.
- compute: add a column computed by an arithmetic expression over existing columns.
  params: {"target": "new_col", "expr": "price * qty"}. Column names with spaces go in backticks. One input.
- merge: join two or more inputs on key columns. params: {"join": "inner"|"left"|"outer",
  "keys": [["key_in_input0"], ["key_in_input1"]]}. Keys are per input slot, equal lengths.
- group_aggregate: group rows and aggregate. params: {"group_by": ["col"],
  "aggregates": [{"column": "x", "fn": "sum"|"avg"|"count"|"min"|"max", "as": "optional_name"}]}. One input.
- output: terminal node naming a result. params: {"name": "result"}. One input.

Rules:
- node ids are short snake_case strings, unique within the graph
- every edge slot on a node is distinct; merge inputs use slots 0, 1, ...
- the graph must be acyclic and every chain must end in an output node
- reference only columns that exist in the given schemas or were added by compute`

// explainSystemPrompt — системный промпт объяснения графа.
const explainSystemPrompt = `You are given a data workflow graph as JSON. Explain in 2-4 plain sentences
what it does to the data, step by step, for a non-technical user. Do not mention JSON or node ids.`

// buildPlanPrompt собирает пользовательское сообщение: схемы + интент.
func buildPlanPrompt(intent string, schemas []SheetSchema) string {
	var b strings.Builder
	b.WriteString("Available tables:\n")
	for _, s := range schemas {
		fmt.Fprintf(&b, "- source %q with columns: %s\n", s.Source, strings.Join(s.Columns, ", "))
	}
	b.WriteString("\nUser request:\n")
	b.WriteString(intent)
	return b.String()
}

/*
Package prompt assembles the ordered message list sent to the LLM.

Order is fixed: system prompt, prior conversation, codebase snapshot,
design tokens, approved dependencies, enterprise components, an optional
extra instruction and finally the user query. Optional sections are
omitted when empty, so the shortest prompt is the system message plus the
query.

Component import paths are shown in alias form (src/x becomes @/x) so the
model imports through the project alias.

The system prompt and the first-turn design instruction may be overridden
by a YAML or TOML profile file.
*/
package prompt

/*
Package generation runs the retrieval-augmented UI generation pipeline.

One call to Orchestrator.Generate walks these stages in order:

	session    resolve or create the conversation
	retrieve   query the vector index in the user's namespace
	fetch      load components, design tokens and manifest (in parallel)
	prompt     assemble the message list
	complete   call the model under a deadline
	parse      decode the reply into edit steps
	reconcile  backfill internal components the steps import
	persist    store the updated conversation and codebase

Invalid requests, retrieval errors, model errors and model timeouts abort
the call with an *Error. Parse, reconciliation and persistence problems are
logged and counted, and the call still succeeds.
*/
package generation

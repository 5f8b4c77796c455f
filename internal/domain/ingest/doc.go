/*
Package ingest indexes a component repository for one user.

A job moves from IN_PROGRESS to exactly one of COMPLETED or ERROR. Start
records the job and runs it in the background; Run does the same work
synchronously for the CLI.

For each repository file:
  - stylesheets become design token files, summarized into the design
    namespace of the vector index
  - the root-most package.json becomes the user's approved manifest
  - sources inside the internal component namespace are described by the
    model in batches, their imports are recorded as dependencies, and they
    are stored and indexed by path in the user's namespace
*/
package ingest

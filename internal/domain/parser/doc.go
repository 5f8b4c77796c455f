/*
Package parser turns raw model output into a GenerationResult.

Accepted shapes, tried in order after trimming and removing markdown fences:
  - a bare JSON array, taken as the step list
  - the span from the first '{' to the last '}', decoded as an object; a
    "steps" key yields the step list and every other key is kept verbatim

Anything else yields an empty step list. Individual steps that cannot be
decoded, carry an unknown type, lack a title or content key, or target no
path are dropped and logged. Field values are kept exactly as emitted.

Parse never fails the caller: the returned result is always usable and the
error, when present, only explains what was discarded.
*/
package parser

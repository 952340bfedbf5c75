// Package dialogue implements the conversational nodes and routers that run
// on the graph engine: intent classification, slot collection, response
// generation, and conversation logging. Nodes absorb recoverable failures
// (classification, extraction, log writes) and substitute safe defaults;
// only unexpected failures propagate and abort the invocation.
package dialogue

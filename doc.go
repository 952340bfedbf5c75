/*
Package parley is a conversational task-completion engine for building
slot-filling dialogue agents on top of any text-generation capability.

It runs each conversation turn through a small directed graph: classify the
user's intent, collect the structured fields the intent requires, then
generate a response. State is checkpointed per thread, so a conversation can
stop and resume across turns and process restarts.

# Concept

Parley separates the dialogue flow (a compiled graph of nodes and routers)
from the ports it depends on: a Classifier that turns freeform text into
structured intent and slot values, an optional Responder for free-form
answers, a CheckpointStore for durable state, and a ConversationLog for the
audit trail. This hexagonal layout lets the same engine sit behind a CLI, an
HTTP server, or an MCP tool.

# Key Features

  - Slot-filling state machine: one question per turn, stable field order,
    localized question templates.
  - Durable threads: checkpoint per thread ID, resumable after restarts,
    latest snapshot wins.
  - Streaming: question and completion text arrive as typed chunk events
    while the turn still executes.
  - Failure containment: classification and extraction failures degrade to
    safe defaults; a turn never fails because the model misbehaved.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/parley-ai/parley"
		"github.com/parley-ai/parley/pkg/adapters/openai"
	)

	func main() {
		classifier := openai.New(openai.Config{APIKey: "sk-..."})

		agent, err := parley.New(classifier)
		if err != nil {
			log.Fatal(err)
		}

		result := agent.Run(context.Background(), "I want to book a flight",
			parley.WithThread("thread-123"),
			parley.WithUser("user-1"),
		)
		fmt.Println(result.Response)
	}

Each Run call is one turn. Passing the same thread ID resumes the
conversation; omitting it starts a new thread with a generated ID. Use
Stream instead of Run to receive the response as chunk events.
*/
package parley

/*
Package domain contains the core domain models for the Parley dialogue engine.

It defines the fundamental entities of the conversation state machine, such as
Messages, the execution State, partial Updates and their merge policies, the
intent taxonomy, and the streaming event types. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Message: A single role-tagged utterance in the conversation history.
  - State: The working execution state threaded through one graph invocation.
  - Update: The partial state a node returns; merged field-by-field.
  - Classification: The classified intent with confidence and language.
  - Event: A typed streaming event emitted while a node still executes.
*/
package domain

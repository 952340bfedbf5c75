/*
Package schema holds the static slot schema registry: which fields an intent
requires, in which order they are asked, and the localized follow-up question
for each field.

The registry is built once at process start and immutable afterwards. The one
cross-field dependency in the schema is the return_date rule: return_date is
required if and only if round_trip is true.
*/
package schema

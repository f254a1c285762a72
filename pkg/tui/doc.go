// Package tui drives a formengine.Engine from the terminal. A Session prompts
// for every field of a formdef.Definition, feeds answers through HandleChange
// and HandleBlur, re-prompts while a field carries an error, and finishes with
// HandleSubmit. Prompts go through a PromptDriver so sessions can be scripted
// in tests; the default driver uses survey.
package tui

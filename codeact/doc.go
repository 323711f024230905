// Package codeact implements the tagged-text protocol spoken between a
// CodeAct agent and its language model.
//
// The model reads its history as flat text and answers with free text
// that may contain one of a handful of tags:
//
//	<execute_bash>ls -la</execute_bash>
//	<execute_editor><operation>read</operation><path>main.go</path></execute_editor>
//	<finish></finish>
//
// The package translates in both directions. Actions and observations are
// rendered into role-tagged messages (Render, BuildPrompt), the latest user
// message is annotated with the remaining turn budget (AnnotateTurnBudget),
// and a raw model reply is repaired (Repair) and parsed into exactly one
// Action (Parse).
//
// Nothing in this package performs I/O. Parsing never fails: text that
// cannot be understood degrades to a MessageAction addressed to the user.
package codeact

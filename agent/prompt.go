package agent

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// SystemPrefix introduces the agent and its two channels.
const SystemPrefix = `A chat between a curious user and an artificial intelligence assistant. The assistant gives helpful, detailed answers to the user's questions.
The assistant can interact with an interactive Linux environment through two channels.
The assistant runs bash commands by wrapping them in <execute_bash> and </execute_bash>, for example:
<execute_bash>
ls -la
</execute_bash>
The assistant works with files by wrapping an editor operation in <execute_editor> and </execute_editor>.`

// CommandDocs documents the editor operations.
const CommandDocs = `Editor operations:
- create a file:
<execute_editor>
<operation>create</operation><path>/path/to/file</path>
</execute_editor>
- read a file:
<execute_editor>
<operation>read</operation><path>/path/to/file</path>
</execute_editor>
- replace lines start (inclusive) to stop (exclusive) of a file, counted from 0; a stop of -1 means the end of the file:
<execute_editor>
<operation>update</operation><path>/path/to/file</path><start>0</start><stop>-1</stop><content>new content</content>
</execute_editor>`

// SystemSuffix states the turn-taking rules.
const SystemSuffix = `Issue at most one <execute_bash> or <execute_editor> block per response, then wait for the OBSERVATION.
If you need more information from the user, reply with plain text and no tags.
When the task is complete, reply with <finish></finish>.`

// Example is the one-shot transcript shown before the real task.
const Example = `--- START OF EXAMPLE ---

USER: Create a file hello.py that prints "hello world", then run it.

ASSISTANT:
Let me create the file first.
<execute_editor>
<operation>create</operation><path>hello.py</path>
</execute_editor>

USER:
OBSERVATION:
Created file: hello.py

ASSISTANT:
Now I will write the program.
<execute_editor>
<operation>update</operation><path>hello.py</path><start>0</start><stop>-1</stop><content>print("hello world")
</content>
</execute_editor>

USER:
OBSERVATION:
Updated file: hello.py

ASSISTANT:
Let me run it.
<execute_bash>
python3 hello.py
</execute_bash>

USER:
OBSERVATION:
hello world
[Command 0 finished with exit code 0]]

ASSISTANT:
The file prints "hello world" as requested.
<finish></finish>

--- END OF EXAMPLE ---`

// BuildSystemPrompt assembles the system message. The environment block is
// omitted when workingDir is empty.
func BuildSystemPrompt(workingDir string) string {
	parts := []string{SystemPrefix, CommandDocs, SystemSuffix}
	if workingDir != "" {
		parts = append(parts, BuildEnvironmentContext(workingDir))
	}
	return strings.Join(parts, "\n\n")
}

// BuildInContextExample wraps Example with its framing sentences.
func BuildInContextExample() string {
	return "Here is an example of how you can interact with the environment for task solving:\n" +
		Example + "\n\nNOW, LET'S START!"
}

// BuildEnvironmentContext describes where commands will run.
func BuildEnvironmentContext(workingDir string) string {
	var sb strings.Builder
	sb.WriteString("<environment>\n")
	fmt.Fprintf(&sb, "Working directory: %s\n", workingDir)
	fmt.Fprintf(&sb, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	sb.WriteString("</environment>")
	return sb.String()
}

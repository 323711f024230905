package codeact

// ObservationKind discriminates between observation variants.
type ObservationKind string

const (
	ObservationCommandOutput ObservationKind = "run"
	ObservationCreateFile    ObservationKind = "create"
	ObservationReadFile      ObservationKind = "read"
	ObservationUpdateFile    ObservationKind = "update"
	ObservationNull          ObservationKind = "null"
)

// Observation is the result of executing an action. Observations are
// produced by executors; this package only renders them.
type Observation interface {
	Kind() ObservationKind
	isObservation()
}

// CommandOutput is the output of a shell command.
type CommandOutput struct {
	Content   string `json:"content"`
	CommandID int    `json:"command_id"`
	ExitCode  int    `json:"exit_code"`
}

// CreateFileResult reports the outcome of a CreateFileAction.
type CreateFileResult struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// ReadFileResult carries the contents of a file.
type ReadFileResult struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UpdateFileResult reports the outcome of an UpdateFileAction.
type UpdateFileResult struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// NullObservation pairs with actions that produce nothing to show, such as
// a user message.
type NullObservation struct{}

func (CommandOutput) Kind() ObservationKind    { return ObservationCommandOutput }
func (CreateFileResult) Kind() ObservationKind { return ObservationCreateFile }
func (ReadFileResult) Kind() ObservationKind   { return ObservationReadFile }
func (UpdateFileResult) Kind() ObservationKind { return ObservationUpdateFile }
func (NullObservation) Kind() ObservationKind  { return ObservationNull }

func (CommandOutput) isObservation()    {}
func (CreateFileResult) isObservation() {}
func (ReadFileResult) isObservation()   {}
func (UpdateFileResult) isObservation() {}
func (NullObservation) isObservation()  {}

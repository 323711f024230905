package agent

import (
	"crypto/sha256"
	"fmt"

	"github.com/martinemde/codeact/codeact"
)

// actionSignature is a short digest of the rendered action, without its
// thought, so that rephrased reasoning around the same command still
// matches.
func actionSignature(a codeact.Action) string {
	text := codeact.EncodeAction(stripThought(a))
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%x", a.Kind(), h[:8])
}

func stripThought(a codeact.Action) codeact.Action {
	switch v := a.(type) {
	case codeact.CommandAction:
		v.Thought = ""
		return v
	case codeact.CreateFileAction:
		v.Thought = ""
		return v
	case codeact.ReadFileAction:
		v.Thought = ""
		return v
	case codeact.UpdateFileAction:
		v.Thought = ""
		return v
	}
	return a
}

// actionSignatures returns signatures of the last count executable actions
// in chronological order. Messages and finish are skipped.
func actionSignatures(history codeact.History, count int) []string {
	var sigs []string
	for i := len(history) - 1; i >= 0 && len(sigs) < count; i-- {
		a := history[i].Action
		if a == nil {
			continue
		}
		switch a.(type) {
		case codeact.MessageAction, codeact.FinishAction:
			continue
		}
		sigs = append(sigs, actionSignature(a))
	}
	for i, j := 0, len(sigs)-1; i < j; i, j = i+1, j-1 {
		sigs[i], sigs[j] = sigs[j], sigs[i]
	}
	return sigs
}

// DetectLoop reports whether the last windowSize executable actions repeat
// a pattern of length 1, 2 or 3.
func DetectLoop(history codeact.History, windowSize int) bool {
	if windowSize <= 0 {
		return false
	}
	sigs := actionSignatures(history, windowSize)
	if len(sigs) < windowSize {
		return false
	}

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 || windowSize == patternLen {
			continue
		}
		matched := true
		for i := patternLen; i < windowSize && matched; i++ {
			matched = sigs[i] == sigs[i%patternLen]
		}
		if matched {
			return true
		}
	}
	return false
}

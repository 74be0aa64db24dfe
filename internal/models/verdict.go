package models

// Verdict is the tri-state correctness of a task: undetermined, correct, or incorrect.
type Verdict int8

const (
	Undetermined Verdict = iota
	Incorrect
	Correct
)

// VerdictOf converts a nullable correctness flag.
func VerdictOf(b *bool) Verdict {
	if b == nil {
		return Undetermined
	}
	return VerdictFromBool(*b)
}

func VerdictFromBool(b bool) Verdict {
	if b {
		return Correct
	}
	return Incorrect
}

// Known reports whether a verdict has been recorded.
func (v Verdict) Known() bool {
	return v != Undetermined
}

// Bool converts back to a nullable flag. [Undetermined] yields nil.
func (v Verdict) Bool() *bool {
	switch v {
	case Correct:
		return Bool(true)
	case Incorrect:
		return Bool(false)
	default:
		return nil
	}
}

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "undetermined"
	}
}

// ParseVerdict accepts "correct"/"true", "incorrect"/"false", and "" or "undetermined".
func ParseVerdict(s string) (Verdict, bool) {
	switch s {
	case "correct", "true":
		return Correct, true
	case "incorrect", "false":
		return Incorrect, true
	case "", "undetermined", "none":
		return Undetermined, true
	default:
		return Undetermined, false
	}
}

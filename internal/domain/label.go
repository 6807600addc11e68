package domain

import "fmt"

// Label is the reuse category assigned to a reading. The integer codes are
// the stable storage encoding; they also order labels by severity
// (SafeForReuse < NeedsTreatment < Unsafe), which is used for display and
// ranking only, never by the classification logic.
type Label int

const (
	LabelSafeForReuse Label = iota
	LabelNeedsTreatment
	LabelUnsafe
)

// NumLabels is the size of the closed label set.
const NumLabels = 3

var labelNames = [NumLabels]string{"Safe for Reuse", "Needs Treatment", "Unsafe"}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// Valid reports whether the code belongs to the closed label set.
func (l Label) Valid() bool {
	return l >= LabelSafeForReuse && l <= LabelUnsafe
}

// ParseLabel converts a stored integer code back into a Label.
func ParseLabel(code int) (Label, error) {
	l := Label(code)
	if !l.Valid() {
		return 0, fmt.Errorf("unknown label code %d", code)
	}
	return l, nil
}

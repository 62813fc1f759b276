package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/aptnet/internal/domain"
)

// FormatMode selects how a Result is written.
type FormatMode int

const (
	// FormatHuman writes labelled lines with two-decimal percentages.
	FormatHuman FormatMode = iota
	// FormatMachine writes the raw chapter percentages followed by the
	// aptitude percentage, space separated, on one line.
	FormatMachine
)

func ParseFormatMode(s string) (FormatMode, error) {
	switch s {
	case "", "human":
		return FormatHuman, nil
	case "machine":
		return FormatMachine, nil
	}
	return 0, fmt.Errorf("%w: unknown format %q", ErrUsage, s)
}

func (m FormatMode) String() string {
	if m == FormatMachine {
		return "machine"
	}
	return "human"
}

// FormatAssessment writes r to w in the given mode.
func FormatAssessment(w io.Writer, r *Result, mode FormatMode) error {
	var b strings.Builder
	if mode == FormatMachine {
		fields := make([]string, 0, len(r.Chapters)+1)
		for _, c := range r.Chapters {
			fields = append(fields, strconv.FormatFloat(c.Percentage, 'f', -1, 64))
		}
		fields = append(fields, strconv.FormatFloat(r.Aptitude.Percentage, 'f', -1, 64))
		b.WriteString(strings.Join(fields, " "))
		b.WriteByte('\n')
	} else {
		b.WriteString("Chapter mastery:\n")
		for _, c := range r.Chapters {
			fmt.Fprintf(&b, "  %s: %.2f%% (%s)\n", c.Chapter, c.Percentage, c.Level)
		}
		if r.Aptitude.Verdict == domain.VerdictApt {
			fmt.Fprintf(&b, "Learner is apt (confidence=%.2f%%)\n", r.Aptitude.Percentage)
		} else {
			fmt.Fprintf(&b, "Learner is not apt (confidence=%.2f%%)\n", r.Aptitude.Percentage)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

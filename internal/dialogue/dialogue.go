// Package dialogue merges the per-channel transcripts of a call into one
// chronological, role-labeled conversation.
package dialogue

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// MalformedSegmentError reports segment data the assembler cannot order
type MalformedSegmentError struct {
	Role    types.Role
	Index   int
	Segment types.Segment
	Reason  string
}

func (e *MalformedSegmentError) Error() string {
	return fmt.Sprintf("%s segment %d [%v-%v]: %s", e.Role, e.Index, e.Segment.Start, e.Segment.End, e.Reason)
}

// Assemble tags both channels with their role and orders them by start time.
// Manager segments are placed ahead of client segments before the stable sort,
// so a manager segment wins a tie on start time.
func Assemble(manager, client []types.Segment) ([]types.RoleSegment, error) {
	merged := make([]types.RoleSegment, 0, len(manager)+len(client))

	for i, seg := range manager {
		if err := validate(types.RoleManager, i, seg); err != nil {
			return nil, err
		}
		merged = append(merged, types.RoleSegment{Segment: seg, Role: types.RoleManager})
	}
	for i, seg := range client {
		if err := validate(types.RoleClient, i, seg); err != nil {
			return nil, err
		}
		merged = append(merged, types.RoleSegment{Segment: seg, Role: types.RoleClient})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged, nil
}

// Render writes one line per segment: "[start-end] Role: text"
func Render(segments []types.RoleSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("[%.2f-%.2f] %s: %s",
			seg.Start, seg.End, seg.Role, strings.TrimSpace(seg.Text)))
	}
	return strings.Join(lines, "\n")
}

// Format assembles and renders in one step
func Format(manager, client []types.Segment) (string, error) {
	merged, err := Assemble(manager, client)
	if err != nil {
		return "", err
	}
	return Render(merged), nil
}

func validate(role types.Role, index int, seg types.Segment) error {
	switch {
	case math.IsNaN(seg.Start) || math.IsNaN(seg.End):
		return &MalformedSegmentError{Role: role, Index: index, Segment: seg, Reason: "timestamp is NaN"}
	case math.IsInf(seg.Start, 0) || math.IsInf(seg.End, 0):
		return &MalformedSegmentError{Role: role, Index: index, Segment: seg, Reason: "timestamp is infinite"}
	case seg.Start < 0:
		return &MalformedSegmentError{Role: role, Index: index, Segment: seg, Reason: "negative start"}
	case seg.End < seg.Start:
		return &MalformedSegmentError{Role: role, Index: index, Segment: seg, Reason: "end before start"}
	}
	return nil
}

package affinity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/groupsched/pkg/log"
)

// ErrMalformed is wrapped by every affinity table format error
var ErrMalformed = errors.New("malformed affinity table")

// FormatError reports the first line of a table that is not two integers
type FormatError struct {
	Line int
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("affinity line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("affinity line %d %q: expected \"<taskId> <groupId>\"", e.Line, e.Text)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

// Map is the task id to group id table
type Map struct {
	groups     map[int]int
	duplicates []int
}

// NewMap creates a map from task id -> group id pairs
func NewMap(entries map[int]int) *Map {
	m := &Map{groups: make(map[int]int, len(entries))}
	for taskID, groupID := range entries {
		m.groups[taskID] = groupID
	}
	return m
}

// Lookup returns the group id of a task. ok is false when the task has no entry.
func (m *Map) Lookup(taskID int) (groupID int, ok bool) {
	if m == nil {
		return 0, false
	}
	groupID, ok = m.groups[taskID]
	return groupID, ok
}

// Len returns the number of distinct task ids
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.groups)
}

// Duplicates returns the task ids that appeared more than once while parsing.
// The last occurrence is the one kept.
func (m *Map) Duplicates() []int {
	if m == nil {
		return nil
	}
	return m.duplicates
}

// Entries returns a copy of the table
func (m *Map) Entries() map[int]int {
	out := make(map[int]int, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.groups {
		out[k] = v
	}
	return out
}

// TaskIDs returns the task ids in ascending order
func (m *Map) TaskIDs() []int {
	ids := make([]int, 0, m.Len())
	if m == nil {
		return ids
	}
	for id := range m.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m *Map) set(taskID, groupID int) {
	if _, exists := m.groups[taskID]; exists {
		m.duplicates = append(m.duplicates, taskID)
	}
	m.groups[taskID] = groupID
}

// Parse reads an affinity table: one "<taskId> <groupId>" pair per non-empty line.
// Tokens after the group id are ignored. A line whose first two tokens are
// not integers fails the whole table; no partial map is returned.
func Parse(r io.Reader) (*Map, error) {
	m := &Map{groups: make(map[int]int)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, &FormatError{Line: lineNo, Text: text}
		}
		if len(fields) > 2 {
			logger := log.WithComponent("affinity")
			logger.Warn().
				Int("line", lineNo).
				Strs("ignored", fields[2:]).
				Msg("Ignoring trailing tokens in affinity line")
		}

		taskID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &FormatError{Line: lineNo, Text: text, Err: err}
		}
		groupID, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &FormatError{Line: lineNo, Text: text, Err: err}
		}

		m.set(taskID, groupID)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read affinity table: %w", err)
	}

	return m, nil
}

// Format writes the table in the format Parse reads, sorted by task id
func Format(m *Map, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, taskID := range m.TaskIDs() {
		groupID, _ := m.Lookup(taskID)
		if _, err := fmt.Fprintf(bw, "%d %d\n", taskID, groupID); err != nil {
			return err
		}
	}
	return bw.Flush()
}

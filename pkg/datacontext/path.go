package datacontext

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one dot-separated step of a Path: an optional object key
// followed by zero or more array indexes.
type Segment struct {
	Key     string
	Indexes []int
}

// Path is a parsed lookup path.
type Path []Segment

// PathError reports a path that cannot be parsed.
type PathError struct {
	Path   string
	Offset int
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path %q at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// String renders the path back in canonical form.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
		for _, idx := range seg.Indexes {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(idx))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// ParsePath parses "a.b[1][2].c". Only the first segment may omit its key
// ("[0].name" indexes a top-level array). Whitespace around the path and
// around index numbers is ignored.
func ParsePath(raw string) (Path, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &PathError{Path: raw, Reason: "empty path"}
	}

	var (
		path Path
		seg  Segment
		key  strings.Builder
	)
	flush := func(at int) error {
		seg.Key = key.String()
		if seg.Key == "" && (len(path) > 0 || len(seg.Indexes) == 0) {
			return &PathError{Path: raw, Offset: at, Reason: "empty segment"}
		}
		path = append(path, seg)
		seg = Segment{}
		key.Reset()
		return nil
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '.':
			if err := flush(i); err != nil {
				return nil, err
			}
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, &PathError{Path: raw, Offset: i, Reason: "unclosed '['"}
			}
			text := strings.TrimSpace(s[i+1 : i+end])
			idx, err := strconv.Atoi(text)
			if err != nil {
				return nil, &PathError{Path: raw, Offset: i, Reason: fmt.Sprintf("index %q is not an integer", text)}
			}
			seg.Indexes = append(seg.Indexes, idx)
			i += end
			if i+1 < len(s) && s[i+1] != '.' && s[i+1] != '[' {
				return nil, &PathError{Path: raw, Offset: i + 1, Reason: "unexpected text after ']'"}
			}
		case ']':
			return nil, &PathError{Path: raw, Offset: i, Reason: "unexpected ']'"}
		default:
			key.WriteByte(c)
		}
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}
	for i := range path {
		path[i].Key = strings.TrimSpace(path[i].Key)
		if path[i].Key == "" && (i > 0 || len(path[i].Indexes) == 0) {
			return nil, &PathError{Path: raw, Reason: "empty segment"}
		}
	}
	return path, nil
}

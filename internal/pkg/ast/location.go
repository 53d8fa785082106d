package ast

import "fmt"

// Location points into the source file a node was parsed from. The
// parser (an external collaborator) fills it in; everything downstream
// only carries it into diagnostics.
type Location struct {
	filePath string
	line     uint32
	column   uint32
}

func NewLocation(filePath string, line, column uint32) Location {
	return Location{filePath: filePath, line: line, column: column}
}

func (loc Location) FilePath() string {
	return loc.filePath
}

func (loc Location) EqualsTo(other Location) bool {
	return loc == other
}

func (loc Location) IsEmpty() bool {
	return loc.filePath == ""
}

func (loc Location) CursorString() string {
	if loc.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", loc.filePath, loc.line, loc.column)
}

func (loc Location) String() string {
	return loc.CursorString()
}

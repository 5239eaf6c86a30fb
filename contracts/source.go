package contracts

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Source describes where a dispatch originated. It is advisory metadata for
// logging, journaling and tracing; reducers never see it and no engine
// decision depends on it.
type Source struct {
	Tag      string `json:"tag"`
	File     string `json:"file,omitempty"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// Here creates a Source tagged with tag and annotated with the caller's
// file, function and line.
func Here(tag string) Source {
	src := Source{Tag: tag}
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		return src
	}
	src.File = filepath.Base(file)
	src.Line = line
	if fn := runtime.FuncForPC(pc); fn != nil {
		src.Function = fn.Name()
	}
	return src
}

// At creates a Source carrying only a logical tag.
func At(tag string) Source {
	return Source{Tag: tag}
}

// String renders the source as "tag (file:line)" when caller information is
// present, otherwise just the tag.
func (s Source) String() string {
	if s.File == "" {
		return s.Tag
	}
	return fmt.Sprintf("%s (%s:%d)", s.Tag, s.File, s.Line)
}

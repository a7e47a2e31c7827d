package fishnet

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedInputError reports an input table that cannot be used at all,
// usually because required columns are absent.
type MalformedInputError struct {
	Source  string
	Missing []string
	Message string
	Err     error
}

func (e *MalformedInputError) Error() string {
	b := strings.Builder{}
	b.WriteString("malformed input")
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required columns %v", e.Missing)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ModuleNotFoundError is returned when a module index has no line in the
// module file of its network.
type ModuleNotFoundError struct {
	Network string
	Module  int
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %d not found in network %s", e.Module, e.Network)
}

// MissingArtifactError is returned when a precomputed artifact (a GO
// enrichment table, a replicate table, a summary shard) does not exist.
type MissingArtifactError struct {
	Path string
	Err  error
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing artifact %s", e.Path)
}

func (e *MissingArtifactError) Unwrap() error { return e.Err }

// SchemaMismatchError is returned by the aggregator when two shards disagree
// on their columns.
type SchemaMismatchError struct {
	Shard    string
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("shard %s has columns %v, expected %v", e.Shard, e.Got, e.Expected)
}

// IsLocalized reports whether err is one of the errors that only affect a
// single module or replicate and should be logged and absorbed by the caller.
func IsLocalized(err error) bool {
	var mnf *ModuleNotFoundError
	var ma *MissingArtifactError
	return errors.As(err, &mnf) || errors.As(err, &ma)
}

// RequireColumns checks that every required column is present in header and
// returns a MalformedInputError listing the ones that are not.
func RequireColumns(source string, header []string, required ...string) error {
	have := make(map[string]struct{}, len(header))
	for _, col := range header {
		have[strings.TrimSpace(col)] = struct{}{}
	}

	missing := make([]string, 0)
	for _, col := range required {
		if _, exists := have[col]; !exists {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &MalformedInputError{Source: source, Missing: missing}
	}

	return nil
}

package textindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingVersion is returned by FromJSON when the input carries no
// version field. The current index is left untouched.
var ErrMissingVersion = errors.New("index snapshot has no version field")

// ErrVersionMismatch matches any *VersionMismatchError via errors.Is.
var ErrVersionMismatch = errors.New("index snapshot version mismatch")

// VersionMismatchError reports a snapshot whose major schema version
// differs from the engine's.
type VersionMismatchError struct {
	Loaded  string
	Current string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("index snapshot version %s is not load-compatible with %s", e.Loaded, e.Current)
}

func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// ToJSON serializes the index as {version, documentIds, terms}.
// Preprocessor and Tokenizer configuration are not part of the snapshot;
// whoever loads it must reconstruct an engine with matching settings or
// later calls will tokenize inconsistently with the stored postings.
func (e *Engine) ToJSON() (string, error) {
	data, err := json.Marshal(e.index)
	if err != nil {
		return "", fmt.Errorf("serializing index: %w", err)
	}
	return string(data), nil
}

// FromJSON parses text and replaces the engine's index wholesale. It fails
// with ErrMissingVersion when no version field is present and with a
// *VersionMismatchError when the major version differs; in both cases, and
// on any parse failure, the current index is untouched. Beyond the basic
// shape, loaded postings are not validated; malformed data may later
// produce incorrect (but not crashing) scores.
func (e *Engine) FromJSON(text string) error {
	var probe struct {
		Version *string `json:"version"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return fmt.Errorf("parsing index snapshot: %w", err)
	}
	if probe.Version == nil {
		return ErrMissingVersion
	}
	if majorVersion(*probe.Version) != majorVersion(SchemaVersion) {
		return &VersionMismatchError{Loaded: *probe.Version, Current: SchemaVersion}
	}

	loaded := newIndex()
	if err := json.Unmarshal([]byte(text), loaded); err != nil {
		return fmt.Errorf("parsing index snapshot: %w", err)
	}
	if loaded.Documents == nil {
		loaded.Documents = make(map[string]int)
	}
	if loaded.Postings == nil {
		loaded.Postings = make(map[string]map[string][]int)
	}
	e.index = loaded
	return nil
}

// majorVersion returns the text before the first '.'.
func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// Package series parses series names of the form "metric key=value ...".
//
// The canonical form has the metric first and the tags sorted by key, each
// token separated by a single space, so "cpu host=a dc=x" and
// "cpu  dc=x host=a" name the same series.
package series

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxLength is the longest accepted series name, in bytes.
const MaxLength = 1024

var (
	ErrEmpty        = errors.New("series: empty name")
	ErrNoTags       = errors.New("series: at least one tag is required")
	ErrMalformedTag = errors.New("series: tag must be key=value")
	ErrDuplicateTag = errors.New("series: duplicate tag key")
	ErrTooLong      = errors.New("series: name too long")
)

// Tag is one key/value pair of a series name.
type Tag struct {
	Key   string
	Value string
}

// Name is a parsed series name.
type Name struct {
	Metric string
	Tags   []Tag
}

// String returns the canonical form.
func (n Name) String() string {
	var sb strings.Builder
	sb.WriteString(n.Metric)
	for _, t := range n.Tags {
		sb.WriteByte(' ')
		sb.WriteString(t.Key)
		sb.WriteByte('=')
		sb.WriteString(t.Value)
	}

	return sb.String()
}

// Parse splits raw into a metric and its tags, sorted by key.
func Parse(raw []byte) (Name, error) {
	if len(raw) > MaxLength {
		return Name{}, fmt.Errorf("%w: %d bytes, max %d", ErrTooLong, len(raw), MaxLength)
	}

	fields := bytes.Fields(raw)
	if len(fields) == 0 {
		return Name{}, ErrEmpty
	}
	if len(fields) == 1 {
		return Name{}, fmt.Errorf("%w: %q", ErrNoTags, fields[0])
	}

	n := Name{Metric: string(fields[0]), Tags: make([]Tag, 0, len(fields)-1)}
	for _, f := range fields[1:] {
		key, value, ok := bytes.Cut(f, []byte{'='})
		if !ok || len(key) == 0 || len(value) == 0 {
			return Name{}, fmt.Errorf("%w: %q", ErrMalformedTag, f)
		}
		n.Tags = append(n.Tags, Tag{Key: string(key), Value: string(value)})
	}

	sort.SliceStable(n.Tags, func(i, j int) bool { return n.Tags[i].Key < n.Tags[j].Key })
	for i := 1; i < len(n.Tags); i++ {
		if n.Tags[i].Key == n.Tags[i-1].Key {
			return Name{}, fmt.Errorf("%w: %q", ErrDuplicateTag, n.Tags[i].Key)
		}
	}

	return n, nil
}

// Normalize returns the canonical form of raw.
func Normalize(raw []byte) (string, error) {
	n, err := Parse(raw)
	if err != nil {
		return "", err
	}

	return n.String(), nil
}

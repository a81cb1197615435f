// Package valuefile reads NCD values from YAML documents.
//
// Each document becomes one value. Scalars become contiguous strings and
// sequences become lists. Two tags select the other string forms:
//
//	!id      interns the scalar and stores it as an id string
//	!concat  joins a sequence of scalars as a composed string
//
// A null scalar (~, null, or an empty value) becomes the "<none>" sentinel.
// Mappings are rejected; NCD values have no map form here. Aliases are
// copied; an alias inside its own anchor is an error.
package valuefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	tagID     = "!id"
	tagConcat = "!concat"
	tagNull   = "!!null"
)

const (
	// maxDepth bounds sequence nesting, counting levels reached through
	// aliases.
	maxDepth = 64
	// maxAliasNodes bounds the number of nodes copied by alias expansion
	// in one document.
	maxAliasNodes = 1 << 16
)

// DecodeError reports a YAML node that cannot become a value.
type DecodeError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// Decode reads every YAML document from r into mem. name is used in errors.
func Decode(name string, r io.Reader, mem *val.Mem) ([]val.Ref, error) {
	dec := yaml.NewDecoder(r)

	var values []val.Ref
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(doc.Content) == 0 {
			continue
		}

		d := &decoder{name: name, mem: mem, open: make(map[*yaml.Node]bool)}
		v, err := d.decode(doc.Content[0], 0)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
}

// decoder converts the nodes of one document.
type decoder struct {
	name string
	mem  *val.Mem
	// open holds the nodes currently being converted.
	open map[*yaml.Node]bool
	// aliasDepth is the number of aliases being expanded.
	aliasDepth int
	aliasNodes int
}

func (d *decoder) decode(n *yaml.Node, depth int) (val.Ref, error) {
	name, mem := d.name, d.mem
	fail := func(format string, args ...any) (val.Ref, error) {
		return val.Ref{}, &DecodeError{File: name, Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
	}

	if depth > maxDepth {
		return fail("value nested deeper than %d levels", maxDepth)
	}
	if d.aliasDepth > 0 {
		d.aliasNodes++
		if d.aliasNodes > maxAliasNodes {
			return fail("aliases expand to more than %d nodes", maxAliasNodes)
		}
	}
	d.open[n] = true
	defer delete(d.open, n)

	var r val.Ref
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return fail("unknown alias %q", n.Value)
		}
		if d.open[n.Alias] {
			return fail("alias *%s refers to an enclosing node", n.Value)
		}
		d.aliasDepth++
		defer func() { d.aliasDepth-- }()
		return d.decode(n.Alias, depth)

	case yaml.ScalarNode:
		switch n.Tag {
		case tagNull:
			r = mem.NewIdString(stringindex.None)
		case tagID:
			id, err := mem.Index().Get(n.Value)
			if err != nil {
				return fail("interning %q: %v", n.Value, err)
			}
			r = mem.NewIdString(id)
		default:
			r = mem.NewString([]byte(n.Value))
		}

	case yaml.SequenceNode:
		if n.Tag == tagConcat {
			parts := make([]string, len(n.Content))
			for i, c := range n.Content {
				if c.Kind != yaml.ScalarNode {
					return fail("%s element %d is not a scalar", tagConcat, i)
				}
				parts[i] = c.Value
			}
			r = mem.NewComposedString(val.SegmentsOf(parts...))
			break
		}

		r = mem.NewList(len(n.Content))
		if r.IsInvalid() {
			return fail("%v", val.ErrAlloc)
		}
		for _, c := range n.Content {
			elem, err := d.decode(c, depth+1)
			if err != nil {
				return val.Ref{}, err
			}
			if err := mem.ListAppend(r, elem); err != nil {
				return fail("%v", err)
			}
		}

	case yaml.MappingNode:
		return fail("mappings are not supported")

	default:
		return fail("unexpected YAML node")
	}

	if r.IsInvalid() {
		return fail("%v", val.ErrAlloc)
	}
	return r, nil
}

// File is the result of loading one value file.
type File struct {
	Path   string
	Mem    *val.Mem
	Values []val.Ref
}

// Loader loads value files into separate Mems that share one string index.
type Loader struct {
	Index       *stringindex.Index
	MemOptions  []val.MemOption
	Concurrency int
	Logger      *slog.Logger
}

// LoadFile loads a single file.
func (l *Loader) LoadFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open value file: %w", err)
	}
	defer func() { _ = f.Close() }()

	mem := val.NewMem(l.Index, l.MemOptions...)
	values, err := Decode(path, f, mem)
	if err != nil {
		return nil, err
	}

	l.logger().Debug("loaded value file",
		slog.String("path", path),
		slog.Int("documents", len(values)),
		slog.Int("values", mem.Count()),
		slog.Int("bytes", mem.Bytes()))
	return &File{Path: path, Mem: mem, Values: values}, nil
}

// LoadFiles loads paths concurrently. Results are in path order. The first
// failure cancels the files not yet started.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]*File, error) {
	files := make([]*File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if l.Concurrency > 0 {
		g.SetLimit(l.Concurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := l.LoadFile(path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}

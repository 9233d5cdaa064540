// Package cheader reads plain C headers with tree-sitter and exposes them
// through the clang cursor interface.
package cheader

import (
	"fmt"
	"strings"
)

// ProviderName identifies the tree-sitter provider in config and logs.
const ProviderName = "cheader"

// DataModel selects the sizes of long and pointers.
type DataModel string

const (
	LP64  DataModel = "LP64"
	ILP32 DataModel = "ILP32"
)

// Options controls how headers are read.
type Options struct {
	IncludeDirs    []string
	Defines        map[string]string
	DataModel      DataModel
	FollowIncludes bool
}

// DefaultOptions returns LP64 with include following enabled.
func DefaultOptions() Options {
	return Options{
		Defines:        map[string]string{},
		DataModel:      LP64,
		FollowIncludes: true,
	}
}

// ApplyArgs folds compiler-style arguments into the options: -I<dir>, -I <dir>,
// -D<name>[=<value>], -U<name>, -m32, -m64. Other arguments are returned
// unchanged so callers can report them.
func (o Options) ApplyArgs(args []string) (Options, []string) {
	out := o
	out.IncludeDirs = append([]string(nil), o.IncludeDirs...)
	out.Defines = make(map[string]string, len(o.Defines))
	for k, v := range o.Defines {
		out.Defines[k] = v
	}

	var ignored []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-I" || arg == "-D" || arg == "-U" || arg == "-isystem" || arg == "-iquote":
			if i+1 >= len(args) {
				ignored = append(ignored, arg)
				continue
			}
			i++
			out.apply(strings.TrimPrefix(arg, "-"), args[i])
		case strings.HasPrefix(arg, "-isystem"):
			out.apply("isystem", strings.TrimPrefix(arg, "-isystem"))
		case strings.HasPrefix(arg, "-iquote"):
			out.apply("iquote", strings.TrimPrefix(arg, "-iquote"))
		case strings.HasPrefix(arg, "-I"), strings.HasPrefix(arg, "-D"), strings.HasPrefix(arg, "-U"):
			out.apply(arg[1:2], arg[2:])
		case arg == "-m32":
			out.DataModel = ILP32
		case arg == "-m64":
			out.DataModel = LP64
		default:
			ignored = append(ignored, arg)
		}
	}
	return out, ignored
}

func (o *Options) apply(flag, value string) {
	switch flag {
	case "I", "isystem", "iquote":
		o.IncludeDirs = append(o.IncludeDirs, value)
	case "D":
		name, val, ok := strings.Cut(value, "=")
		if !ok {
			val = "1"
		}
		o.Defines[name] = val
	case "U":
		delete(o.Defines, value)
	}
}

// Validate checks the data model.
func (o Options) Validate() error {
	switch o.DataModel {
	case LP64, ILP32, "":
		return nil
	}
	return fmt.Errorf("unknown data model %q (want %s or %s)", o.DataModel, LP64, ILP32)
}

package usi

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// OptionType is the USI option type keyword.
type OptionType int

const (
	Check OptionType = iota
	Spin
	Combo
	Button
	String
	Filename
)

func (t OptionType) String() string {
	switch t {
	case Check:
		return "check"
	case Spin:
		return "spin"
	case Combo:
		return "combo"
	case Button:
		return "button"
	case String:
		return "string"
	case Filename:
		return "filename"
	}
	return "?"
}

// Option declares one engine option. Use the constructors; they validate
// the declaration.
type Option struct {
	Name     string
	Type     OptionType
	Default  string
	Min, Max int
	Vars     []string
}

func CheckOption(name string, def bool) Option {
	return Option{Name: name, Type: Check, Default: strconv.FormatBool(def)}
}

func SpinOption(name string, def, min, max int) (Option, error) {
	if min > max || def < min || def > max {
		return Option{}, errors.Wrapf(ErrInvalidInfo, "spin %s: default %d outside [%d, %d]", name, def, min, max)
	}
	return Option{Name: name, Type: Spin, Default: strconv.Itoa(def), Min: min, Max: max}, nil
}

// ComboOption rejects an empty variant list and a default outside it.
func ComboOption(name, def string, vars []string) (Option, error) {
	if len(vars) == 0 {
		return Option{}, errors.Wrapf(ErrInvalidInfo, "combo %s: no variants", name)
	}
	if !slices.Contains(vars, def) {
		return Option{}, errors.Wrapf(ErrInvalidInfo, "combo %s: default %q not a variant", name, def)
	}
	return Option{Name: name, Type: Combo, Default: def, Vars: slices.Clone(vars)}, nil
}

func ButtonOption(name string) Option { return Option{Name: name, Type: Button} }

func StringOption(name, def string) Option {
	return Option{Name: name, Type: String, Default: def}
}

func FilenameOption(name, def string) Option {
	return Option{Name: name, Type: Filename, Default: def}
}

// Format renders the "option name ... type ..." line.
func (o Option) Format() (string, error) {
	if o.Name == "" {
		return "", errors.Wrap(ErrInvalidInfo, "option without name")
	}
	var sb strings.Builder
	sb.WriteString("option name ")
	sb.WriteString(o.Name)
	sb.WriteString(" type ")
	sb.WriteString(o.Type.String())
	switch o.Type {
	case Check:
		sb.WriteString(" default " + o.Default)
	case Spin:
		sb.WriteString(" default " + o.Default)
		sb.WriteString(" min " + strconv.Itoa(o.Min))
		sb.WriteString(" max " + strconv.Itoa(o.Max))
	case Combo:
		if len(o.Vars) == 0 {
			return "", errors.Wrapf(ErrInvalidInfo, "combo %s: no variants", o.Name)
		}
		sb.WriteString(" default " + o.Default)
		for _, v := range o.Vars {
			sb.WriteString(" var " + v)
		}
	case String, Filename:
		def := o.Default
		if def == "" {
			def = "<empty>"
		}
		sb.WriteString(" default " + def)
	case Button:
	default:
		return "", errors.Wrapf(ErrInvalidInfo, "option %s: unknown type", o.Name)
	}
	return sb.String(), nil
}

// Validate checks a setoption value against the declaration and returns it
// normalised.
func (o Option) Validate(value string) (string, error) {
	switch o.Type {
	case Check:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return "", errors.Wrapf(ErrMalformed, "option %s: %q is not a boolean", o.Name, value)
		}
		return strconv.FormatBool(v), nil
	case Spin:
		n, err := strconv.Atoi(value)
		if err != nil || n < o.Min || n > o.Max {
			return "", errors.Wrapf(ErrMalformed, "option %s: %q outside [%d, %d]", o.Name, value, o.Min, o.Max)
		}
		return strconv.Itoa(n), nil
	case Combo:
		if !slices.Contains(o.Vars, value) {
			return "", errors.Wrapf(ErrMalformed, "option %s: %q not a variant", o.Name, value)
		}
		return value, nil
	case Button:
		return "", nil
	case String, Filename:
		if value == "<empty>" {
			return "", nil
		}
		return value, nil
	}
	return "", errors.Wrapf(ErrMalformed, "option %s: unknown type", o.Name)
}

// Options is a set of declarations with their current values.
type Options struct {
	decls  []Option
	values map[string]string
}

// NewOptions builds a set from declarations, each starting at its default.
func NewOptions(decls ...Option) *Options {
	o := &Options{values: make(map[string]string, len(decls))}
	for _, d := range decls {
		o.decls = append(o.decls, d)
		o.values[d.Name] = d.Default
	}
	return o
}

// Decls returns the declarations in declaration order.
func (o *Options) Decls() []Option { return o.decls }

// Lookup finds a declaration by name, ignoring case.
func (o *Options) Lookup(name string) (Option, bool) {
	for _, d := range o.decls {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Option{}, false
}

// Set validates and stores a value. Unknown names are an error.
func (o *Options) Set(name, value string) error {
	d, ok := o.Lookup(name)
	if !ok {
		return errors.Wrapf(ErrMalformed, "no option named %q", name)
	}
	v, err := d.Validate(value)
	if err != nil {
		return err
	}
	o.values[d.Name] = v
	return nil
}

// Get returns the current value of an option.
func (o *Options) Get(name string) string {
	d, ok := o.Lookup(name)
	if !ok {
		return ""
	}
	return o.values[d.Name]
}

// Int returns a spin value, or 0.
func (o *Options) Int(name string) int {
	n, _ := strconv.Atoi(o.Get(name))
	return n
}

// Bool returns a check value.
func (o *Options) Bool(name string) bool {
	v, _ := strconv.ParseBool(o.Get(name))
	return v
}

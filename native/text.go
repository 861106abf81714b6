package native

import (
	"strings"

	"github.com/wippyai/protobind/errors"
	"golang.org/x/text/language"
)

// NameString returns the interned string, "" for the zero Name.
func NameString(n Name) string {
	if n == (Name{}) {
		return ""
	}
	return n.Value()
}

// Text is display text tagged with its language. Only Value travels on
// the wire; Lang is left untouched by decoding.
type Text struct {
	Lang  language.Tag
	Value string
}

// NewText tags s with lang, a BCP 47 tag such as "en-US".
func NewText(lang, s string) (Text, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return Text{}, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("language tag %q", lang).
			Cause(err).
			Build()
	}
	return Text{Lang: tag, Value: s}, nil
}

// String returns the text value.
func (t Text) String() string {
	return t.Value
}

// IsEmpty reports whether the text has no value.
func (t Text) IsEmpty() bool {
	return t.Value == ""
}

// ObjectPath references a loadable asset as "Package.Asset:Sub".
// Sub is optional. A dotted Package without an Asset is written with a
// trailing dot, "Game.Maps.", so it parses back unchanged.
type ObjectPath struct {
	Package string
	Asset   string
	Sub     string
}

// ParseObjectPath parses the textual form produced by String.
func ParseObjectPath(s string) (ObjectPath, error) {
	var p ObjectPath
	err := p.UnmarshalText([]byte(s))
	return p, err
}

// IsNull reports whether the path references nothing.
func (p ObjectPath) IsNull() bool {
	return p == ObjectPath{}
}

func (p ObjectPath) String() string {
	if p.IsNull() {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.Package)
	if p.Asset != "" || strings.IndexByte(p.Package, '.') >= 0 {
		b.WriteByte('.')
		b.WriteString(p.Asset)
	}
	if p.Sub != "" {
		b.WriteByte(':')
		b.WriteString(p.Sub)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler. It rejects paths whose
// text form would parse back differently.
func (p ObjectPath) MarshalText() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return []byte(p.String()), nil
}

func (p ObjectPath) validate() error {
	var bad string
	switch {
	case p.IsNull():
		return nil
	case p.Package == "":
		bad = "no package"
	case strings.IndexByte(p.Package, ':') >= 0:
		bad = "package contains ':'"
	case strings.ContainsAny(p.Asset, ".:"):
		bad = "asset contains '.' or ':'"
	default:
		return nil
	}
	return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
		Detail("object path %+v: %s", p, bad).
		Build()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ObjectPath) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "" {
		*p = ObjectPath{}
		return nil
	}
	path, sub, _ := strings.Cut(s, ":")
	pkg, asset := path, ""
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		pkg, asset = path[:i], path[i+1:]
	}
	if pkg == "" {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("object path %q has no package", s).
			Build()
	}
	*p = ObjectPath{Package: pkg, Asset: asset, Sub: sub}
	return nil
}

package semantics

import (
	"fmt"
	"strings"
)

// PartOfSpeech identifies the variant of a Pada.
type PartOfSpeech uint8

const (
	// PosNone marks the None placeholder.
	PosNone PartOfSpeech = iota
	// PosAvyaya is an indeclinable.
	PosAvyaya
	// PosSubanta is a nominal.
	PosSubanta
	// PosTinanta is a verb.
	PosTinanta
)

var posNames = [...]string{"none", "avyaya", "subanta", "tinanta"}

func (p PartOfSpeech) String() string {
	if int(p) < len(posNames) {
		return posNames[p]
	}
	return fmt.Sprintf("PartOfSpeech(%d)", uint8(p))
}

// ParsePartOfSpeech is the inverse of PartOfSpeech.String.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	v, err := parseName("part of speech", s, posNames[:])
	return PartOfSpeech(v), err
}

// Pada is the morphological analysis of one word-form. The set of
// implementations is closed: None, Avyaya, Subanta and Tinanta.
type Pada interface {
	PartOfSpeech() PartOfSpeech
	// Equal reports full structural equality, including stem and root text.
	Equal(other Pada) bool
	String() string

	isPada()
}

// None is the absence of an analysis. It is a placeholder and is never
// stored in a kosha.
type None struct{}

// Avyaya is an indeclinable.
type Avyaya struct {
	Pratipadika Pratipadika
}

// Subanta is a nominal: noun, adjective or pronoun.
type Subanta struct {
	Pratipadika Pratipadika
	Linga       *Linga
	Vibhakti    *Vibhakti
	Vacana      *Vacana
	// IsPurvapada is set when the form must not occur as the last member of
	// a compound.
	IsPurvapada bool
}

// Tinanta is a finite verb.
type Tinanta struct {
	Dhatu       *Dhatu
	Purusha     *Purusha
	Vacana      *Vacana
	Lakara      *Lakara
	PadaPrayoga *PadaPrayoga
}

func (None) isPada()    {}
func (Avyaya) isPada()  {}
func (Subanta) isPada() {}
func (Tinanta) isPada() {}

func (None) PartOfSpeech() PartOfSpeech    { return PosNone }
func (Avyaya) PartOfSpeech() PartOfSpeech  { return PosAvyaya }
func (Subanta) PartOfSpeech() PartOfSpeech { return PosSubanta }
func (Tinanta) PartOfSpeech() PartOfSpeech { return PosTinanta }

// Deref returns the value form of p. Pointer variants satisfy Pada through
// their value methods; they are dereferenced here and a nil pointer yields
// nil.
func Deref(p Pada) Pada {
	switch v := p.(type) {
	case *None:
		if v == nil {
			return nil
		}
		return *v
	case *Avyaya:
		if v == nil {
			return nil
		}
		return *v
	case *Subanta:
		if v == nil {
			return nil
		}
		return *v
	case *Tinanta:
		if v == nil {
			return nil
		}
		return *v
	}
	return p
}

func (None) Equal(other Pada) bool {
	_, ok := Deref(other).(None)
	return ok
}

func (a Avyaya) Equal(other Pada) bool {
	o, ok := Deref(other).(Avyaya)
	return ok && a == o
}

func (s Subanta) Equal(other Pada) bool {
	o, ok := Deref(other).(Subanta)
	return ok &&
		s.Pratipadika == o.Pratipadika &&
		optEqual(s.Linga, o.Linga) &&
		optEqual(s.Vibhakti, o.Vibhakti) &&
		optEqual(s.Vacana, o.Vacana) &&
		s.IsPurvapada == o.IsPurvapada
}

func (t Tinanta) Equal(other Pada) bool {
	o, ok := Deref(other).(Tinanta)
	return ok &&
		optEqual(t.Dhatu, o.Dhatu) &&
		optEqual(t.Purusha, o.Purusha) &&
		optEqual(t.Vacana, o.Vacana) &&
		optEqual(t.Lakara, o.Lakara) &&
		optEqual(t.PadaPrayoga, o.PadaPrayoga)
}

func optEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (None) String() string { return "Pada(None)" }

func (a Avyaya) String() string {
	return padaString(PosAvyaya, "pratipadika="+a.Pratipadika.GoString())
}

func (s Subanta) String() string {
	args := []string{"pratipadika=" + s.Pratipadika.GoString()}
	args = appendOpt(args, "linga", s.Linga)
	args = appendOpt(args, "vibhakti", s.Vibhakti)
	args = appendOpt(args, "vacana", s.Vacana)
	args = append(args, fmt.Sprintf("is_purvapada=%t", s.IsPurvapada))
	return padaString(PosSubanta, args...)
}

func (t Tinanta) String() string {
	var args []string
	if t.Dhatu != nil {
		args = append(args, "dhatu="+t.Dhatu.GoString())
	}
	args = appendOpt(args, "purusha", t.Purusha)
	args = appendOpt(args, "vacana", t.Vacana)
	args = appendOpt(args, "lakara", t.Lakara)
	args = appendOpt(args, "pada_prayoga", t.PadaPrayoga)
	return padaString(PosTinanta, args...)
}

func appendOpt[T fmt.Stringer](args []string, name string, v *T) []string {
	if v == nil {
		return args
	}
	return append(args, name+"="+(*v).String())
}

func padaString(pos PartOfSpeech, args ...string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Pada(pos=%s)", pos)
	}
	return fmt.Sprintf("Pada(pos=%s, %s)", pos, strings.Join(args, ", "))
}

package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ssargent/koshadb/pkg/semantics"
)

// PackedPada is the compact stored form of a semantics.Pada.
//
// Layout, one discriminant byte followed by the variant body:
//
//	None:    [0]
//	Avyaya:  [1][stem]
//	Subanta: [2][linga][vibhakti][vacana][flags][stem]   flags bit0: is_purvapada
//	Tinanta: [3][purusha][vacana][lakara][prayoga][flags] flags bit0: dhatu follows
//	         ([dhatu])
//
// Dimension bytes hold 0 for unspecified and member+1 otherwise. A stem or
// dhatu is a uvarint length followed by its text.
type PackedPada []byte

// Discriminants are part of the storage format and must never be renumbered.
const (
	discNone    uint8 = 0
	discAvyaya  uint8 = 1
	discSubanta uint8 = 2
	discTinanta uint8 = 3
)

const (
	flagPurvapada uint8 = 1 << 0
	flagHasDhatu  uint8 = 1 << 0
)

var (
	// ErrInvalidTag is the kind of DecodeError returned when a byte does not
	// name a known variant, enumeration member or flag.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrMissingRequiredField is the kind of DecodeError returned when the
	// packed data ends before a field the variant requires.
	ErrMissingRequiredField = errors.New("missing required field")
)

// DecodeError describes why a PackedPada could not be decoded.
type DecodeError struct {
	Kind  error // ErrInvalidTag or ErrMissingRequiredField
	Field string
	Tag   uint8
}

func (e *DecodeError) Error() string {
	if e.Kind == ErrInvalidTag {
		return fmt.Sprintf("decode pada: %s %d for %s", e.Kind, e.Tag, e.Field)
	}
	return fmt.Sprintf("decode pada: %s %s", e.Kind, e.Field)
}

func (e *DecodeError) Unwrap() error { return e.Kind }

// Encode packs p. It never fails: every Pada, including None and records
// with unspecified dimensions, has a packed form. Pointer variants pack like
// their values; nil, including a nil pointer, packs as None.
func Encode(p semantics.Pada) PackedPada {
	switch v := semantics.Deref(p).(type) {
	case semantics.Avyaya:
		buf := make([]byte, 0, 1+binary.MaxVarintLen32+len(v.Pratipadika.Text))
		buf = append(buf, discAvyaya)
		return appendText(buf, v.Pratipadika.Text)

	case semantics.Subanta:
		var flags uint8
		if v.IsPurvapada {
			flags |= flagPurvapada
		}
		buf := make([]byte, 0, 5+binary.MaxVarintLen32+len(v.Pratipadika.Text))
		buf = append(buf,
			discSubanta,
			packLinga(v.Linga),
			packVibhakti(v.Vibhakti),
			packVacana(v.Vacana),
			flags,
		)
		return appendText(buf, v.Pratipadika.Text)

	case semantics.Tinanta:
		var flags uint8
		if v.Dhatu != nil {
			flags |= flagHasDhatu
		}
		buf := make([]byte, 0, 6+binary.MaxVarintLen32+8)
		buf = append(buf,
			discTinanta,
			packPurusha(v.Purusha),
			packVacana(v.Vacana),
			packLakara(v.Lakara),
			packPadaPrayoga(v.PadaPrayoga),
			flags,
		)
		if v.Dhatu != nil {
			buf = appendText(buf, v.Dhatu.Text)
		}
		return buf

	case semantics.None, nil:
		return PackedPada{discNone}

	default:
		panic(fmt.Sprintf("codec: unhandled pada type %T", p))
	}
}

// IsNone reports whether p is the packed None variant.
func (p PackedPada) IsNone() bool {
	return len(p) > 0 && p[0] == discNone
}

func appendText(buf []byte, text string) PackedPada {
	buf = binary.AppendUvarint(buf, uint64(len(text)))
	return append(buf, text...)
}

// Decode unpacks a PackedPada. It either returns a complete Pada or a
// *DecodeError; it never returns a partially filled variant.
func Decode(packed PackedPada) (semantics.Pada, error) {
	d := decoder{buf: packed}

	disc, err := d.byte("discriminant")
	if err != nil {
		return nil, err
	}

	var p semantics.Pada
	switch disc {
	case discNone:
		p = semantics.None{}
	case discAvyaya:
		p, err = d.avyaya()
	case discSubanta:
		p, err = d.subanta()
	case discTinanta:
		p, err = d.tinanta()
	default:
		return nil, &DecodeError{Kind: ErrInvalidTag, Field: "discriminant", Tag: disc}
	}
	if err != nil {
		return nil, err
	}

	if d.pos != len(d.buf) {
		return nil, &DecodeError{Kind: ErrInvalidTag, Field: "trailer", Tag: d.buf[d.pos]}
	}
	return p, nil
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) byte(field string) (uint8, error) {
	if d.pos >= len(d.buf) {
		return 0, &DecodeError{Kind: ErrMissingRequiredField, Field: field}
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) text(field string) (string, error) {
	n, size := binary.Uvarint(d.buf[d.pos:])
	if size <= 0 {
		return "", &DecodeError{Kind: ErrMissingRequiredField, Field: field}
	}
	start := d.pos + size
	if n > uint64(len(d.buf)-start) {
		return "", &DecodeError{Kind: ErrMissingRequiredField, Field: field}
	}
	d.pos = start + int(n)
	return string(d.buf[start:d.pos]), nil
}

func (d *decoder) avyaya() (semantics.Pada, error) {
	stem, err := d.text("pratipadika")
	if err != nil {
		return nil, err
	}
	return semantics.Avyaya{Pratipadika: semantics.Pratipadika{Text: stem}}, nil
}

func (d *decoder) subanta() (semantics.Pada, error) {
	var tags [4]uint8
	for i, field := range [...]string{"linga", "vibhakti", "vacana", "flags"} {
		b, err := d.byte(field)
		if err != nil {
			return nil, err
		}
		tags[i] = b
	}

	linga, err := unpackLinga(tags[0])
	if err != nil {
		return nil, err
	}
	vibhakti, err := unpackVibhakti(tags[1])
	if err != nil {
		return nil, err
	}
	vacana, err := unpackVacana(tags[2])
	if err != nil {
		return nil, err
	}
	flags := tags[3]
	if flags&^flagPurvapada != 0 {
		return nil, &DecodeError{Kind: ErrInvalidTag, Field: "flags", Tag: flags}
	}

	stem, err := d.text("pratipadika")
	if err != nil {
		return nil, err
	}

	return semantics.Subanta{
		Pratipadika: semantics.Pratipadika{Text: stem},
		Linga:       linga,
		Vibhakti:    vibhakti,
		Vacana:      vacana,
		IsPurvapada: flags&flagPurvapada != 0,
	}, nil
}

func (d *decoder) tinanta() (semantics.Pada, error) {
	var tags [5]uint8
	for i, field := range [...]string{"purusha", "vacana", "lakara", "pada_prayoga", "flags"} {
		b, err := d.byte(field)
		if err != nil {
			return nil, err
		}
		tags[i] = b
	}

	purusha, err := unpackPurusha(tags[0])
	if err != nil {
		return nil, err
	}
	vacana, err := unpackVacana(tags[1])
	if err != nil {
		return nil, err
	}
	lakara, err := unpackLakara(tags[2])
	if err != nil {
		return nil, err
	}
	prayoga, err := unpackPadaPrayoga(tags[3])
	if err != nil {
		return nil, err
	}
	flags := tags[4]
	if flags&^flagHasDhatu != 0 {
		return nil, &DecodeError{Kind: ErrInvalidTag, Field: "flags", Tag: flags}
	}

	var dhatu *semantics.Dhatu
	if flags&flagHasDhatu != 0 {
		text, err := d.text("dhatu")
		if err != nil {
			return nil, err
		}
		dhatu = &semantics.Dhatu{Text: text}
	}

	return semantics.Tinanta{
		Dhatu:       dhatu,
		Purusha:     purusha,
		Vacana:      vacana,
		Lakara:      lakara,
		PadaPrayoga: prayoga,
	}, nil
}

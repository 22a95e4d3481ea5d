package semantics

import (
	"fmt"

	"github.com/goccy/go-json"
)

// padaJSON is the flat wire form of a Pada. Absent fields are unspecified
// dimensions. Fields that do not belong to the variant are ignored.
type padaJSON struct {
	POS         string  `json:"pos"`
	Pratipadika *string `json:"pratipadika,omitempty"`
	Dhatu       *string `json:"dhatu,omitempty"`
	Linga       *string `json:"linga,omitempty"`
	Vibhakti    *string `json:"vibhakti,omitempty"`
	Vacana      *string `json:"vacana,omitempty"`
	Purusha     *string `json:"purusha,omitempty"`
	Lakara      *string `json:"lakara,omitempty"`
	PadaPrayoga *string `json:"pada_prayoga,omitempty"`
	IsPurvapada bool    `json:"is_purvapada,omitempty"`
}

// MarshalPada encodes p in its JSON form, for example
//
//	{"pos":"subanta","pratipadika":"deva","linga":"pum","vibhakti":"v7","vacana":"eka"}
func MarshalPada(p Pada) ([]byte, error) {
	return json.Marshal(toJSON(p))
}

// PadaJSON returns the JSON-ready form of p for embedding in larger
// documents.
func PadaJSON(p Pada) any {
	return toJSON(p)
}

func toJSON(p Pada) padaJSON {
	p = Deref(p)
	if p == nil {
		return padaJSON{POS: PosNone.String()}
	}
	out := padaJSON{POS: p.PartOfSpeech().String()}
	switch v := p.(type) {
	case Avyaya:
		out.Pratipadika = Ptr(v.Pratipadika.Text)
	case Subanta:
		out.Pratipadika = Ptr(v.Pratipadika.Text)
		out.Linga = nameOf(v.Linga)
		out.Vibhakti = nameOf(v.Vibhakti)
		out.Vacana = nameOf(v.Vacana)
		out.IsPurvapada = v.IsPurvapada
	case Tinanta:
		if v.Dhatu != nil {
			out.Dhatu = Ptr(v.Dhatu.Text)
		}
		out.Purusha = nameOf(v.Purusha)
		out.Vacana = nameOf(v.Vacana)
		out.Lakara = nameOf(v.Lakara)
		out.PadaPrayoga = nameOf(v.PadaPrayoga)
	}
	return out
}

func nameOf[T fmt.Stringer](v *T) *string {
	if v == nil {
		return nil
	}
	return Ptr((*v).String())
}

// UnmarshalPada decodes the JSON form produced by MarshalPada.
func UnmarshalPada(data []byte) (Pada, error) {
	var in padaJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse pada: %w", err)
	}
	return in.toPada()
}

func (in padaJSON) toPada() (Pada, error) {
	pos, err := ParsePartOfSpeech(in.POS)
	if err != nil {
		return nil, err
	}

	switch pos {
	case PosNone:
		return None{}, nil
	case PosAvyaya:
		if in.Pratipadika == nil {
			return nil, fmt.Errorf("avyaya requires a pratipadika")
		}
		return Avyaya{Pratipadika: Pratipadika{Text: *in.Pratipadika}}, nil
	case PosSubanta:
		if in.Pratipadika == nil {
			return nil, fmt.Errorf("subanta requires a pratipadika")
		}
		s := Subanta{
			Pratipadika: Pratipadika{Text: *in.Pratipadika},
			IsPurvapada: in.IsPurvapada,
		}
		if s.Linga, err = parseOpt(in.Linga, ParseLinga); err != nil {
			return nil, err
		}
		if s.Vibhakti, err = parseOpt(in.Vibhakti, ParseVibhakti); err != nil {
			return nil, err
		}
		if s.Vacana, err = parseOpt(in.Vacana, ParseVacana); err != nil {
			return nil, err
		}
		return s, nil
	default:
		var t Tinanta
		if in.Dhatu != nil {
			t.Dhatu = &Dhatu{Text: *in.Dhatu}
		}
		if t.Purusha, err = parseOpt(in.Purusha, ParsePurusha); err != nil {
			return nil, err
		}
		if t.Vacana, err = parseOpt(in.Vacana, ParseVacana); err != nil {
			return nil, err
		}
		if t.Lakara, err = parseOpt(in.Lakara, ParseLakara); err != nil {
			return nil, err
		}
		if t.PadaPrayoga, err = parseOpt(in.PadaPrayoga, ParsePadaPrayoga); err != nil {
			return nil, err
		}
		return t, nil
	}
}

func parseOpt[T any](s *string, parse func(string) (T, error)) (*T, error) {
	if s == nil {
		return nil, nil
	}
	v, err := parse(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

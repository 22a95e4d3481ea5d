package codec

import (
	"errors"
	"testing"

	"github.com/ssargent/koshadb/pkg/semantics"
)

// options returns nil followed by a pointer to every member.
func options[T ~uint8](members int) []*T {
	out := []*T{nil}
	for i := 0; i < members; i++ {
		v := T(i)
		out = append(out, &v)
	}
	return out
}

func roundTrip(t *testing.T, p semantics.Pada) {
	t.Helper()

	packed := Encode(p)
	got, err := Decode(packed)
	if err != nil {
		t.Fatalf("Decode(Encode(%s)) failed: %v", p, err)
	}
	if !p.Equal(got) {
		t.Fatalf("round trip mismatch: got %s, want %s", got, p)
	}
}

func TestPada_RoundTripSubanta(t *testing.T) {
	for _, stem := range []string{"deva", "", "rAma"} {
		for _, linga := range options[semantics.Linga](semantics.NumLingas) {
			for _, vibhakti := range options[semantics.Vibhakti](semantics.NumVibhaktis) {
				for _, vacana := range options[semantics.Vacana](semantics.NumVacanas) {
					for _, purvapada := range []bool{false, true} {
						roundTrip(t, semantics.Subanta{
							Pratipadika: semantics.Pratipadika{Text: stem},
							Linga:       linga,
							Vibhakti:    vibhakti,
							Vacana:      vacana,
							IsPurvapada: purvapada,
						})
					}
				}
			}
		}
	}
}

func TestPada_RoundTripTinanta(t *testing.T) {
	for _, dhatu := range []*semantics.Dhatu{nil, {Text: "gam"}, {Text: ""}} {
		for _, purusha := range options[semantics.Purusha](semantics.NumPurushas) {
			for _, vacana := range options[semantics.Vacana](semantics.NumVacanas) {
				for _, lakara := range options[semantics.Lakara](semantics.NumLakaras) {
					for _, prayoga := range options[semantics.PadaPrayoga](semantics.NumPadaPrayogas) {
						roundTrip(t, semantics.Tinanta{
							Dhatu:       dhatu,
							Purusha:     purusha,
							Vacana:      vacana,
							Lakara:      lakara,
							PadaPrayoga: prayoga,
						})
					}
				}
			}
		}
	}
}

func TestPada_RoundTripOthers(t *testing.T) {
	roundTrip(t, semantics.None{})
	roundTrip(t, semantics.Avyaya{Pratipadika: semantics.Pratipadika{Text: "ca"}})
	roundTrip(t, semantics.Avyaya{Pratipadika: semantics.Pratipadika{Text: ""}})

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	roundTrip(t, semantics.Avyaya{Pratipadika: semantics.Pratipadika{Text: string(long)}})
}

func TestPada_EncodeNil(t *testing.T) {
	p, err := Decode(Encode(nil))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := p.(semantics.None); !ok {
		t.Errorf("expected None, got %s", p)
	}
}

func TestPada_EncodePointers(t *testing.T) {
	sup := semantics.Subanta{
		Pratipadika: semantics.Pratipadika{Text: "deva"},
		Linga:       semantics.Ptr(semantics.Pum),
		Vibhakti:    semantics.Ptr(semantics.V1),
	}
	tin := semantics.Tinanta{Dhatu: &semantics.Dhatu{Text: "gam"}, Lakara: semantics.Ptr(semantics.Lat)}
	avy := semantics.Avyaya{Pratipadika: semantics.Pratipadika{Text: "ca"}}

	for _, tc := range []struct {
		value   semantics.Pada
		pointer semantics.Pada
	}{
		{sup, &sup},
		{tin, &tin},
		{avy, &avy},
	} {
		packed := Encode(tc.pointer)
		if packed.IsNone() {
			t.Fatalf("pointer to %s packed as none", tc.value)
		}
		if string(packed) != string(Encode(tc.value)) {
			t.Errorf("pointer and value pack differently for %s", tc.value)
		}
		roundTrip(t, tc.pointer)
	}

	for _, p := range []semantics.Pada{nil, (*semantics.Subanta)(nil), &semantics.None{}} {
		if !Encode(p).IsNone() {
			t.Errorf("expected %T to pack as none", p)
		}
	}
}

func TestPada_EncodeLayout(t *testing.T) {
	p := semantics.Subanta{
		Pratipadika: semantics.Pratipadika{Text: "gam"},
		Linga:       semantics.Ptr(semantics.Pum),
		Vibhakti:    semantics.Ptr(semantics.V7),
		IsPurvapada: true,
	}

	want := []byte{discSubanta, 1, 7, 0, flagPurvapada, 3, 'g', 'a', 'm'}
	got := Encode(p)
	if string(got) != string(want) {
		t.Errorf("layout mismatch: got %v, want %v", []byte(got), want)
	}
}

func TestPada_EncodeInvalidMember(t *testing.T) {
	p := semantics.Subanta{Linga: semantics.Ptr(semantics.Linga(200))}

	got, err := Decode(Encode(p))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.(semantics.Subanta).Linga != nil {
		t.Errorf("expected out-of-range linga to pack as unspecified")
	}
}

func TestPada_DecodeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		data  []byte
		kind  error
		field string
	}{
		{"empty", nil, ErrMissingRequiredField, "discriminant"},
		{"unknown discriminant", []byte{9}, ErrInvalidTag, "discriminant"},
		{"avyaya without stem", []byte{discAvyaya}, ErrMissingRequiredField, "pratipadika"},
		{"avyaya short stem", []byte{discAvyaya, 5, 'c', 'a'}, ErrMissingRequiredField, "pratipadika"},
		{"subanta truncated", []byte{discSubanta, 1, 2}, ErrMissingRequiredField, "vacana"},
		{"subanta bad linga", []byte{discSubanta, 4, 0, 0, 0, 0}, ErrInvalidTag, "linga"},
		{"subanta bad vibhakti", []byte{discSubanta, 0, 9, 0, 0, 0}, ErrInvalidTag, "vibhakti"},
		{"subanta bad flags", []byte{discSubanta, 0, 0, 0, 2, 0}, ErrInvalidTag, "flags"},
		{"subanta without stem", []byte{discSubanta, 0, 0, 0, 0}, ErrMissingRequiredField, "pratipadika"},
		{"tinanta bad lakara", []byte{discTinanta, 0, 0, 13, 0, 0}, ErrInvalidTag, "lakara"},
		{"tinanta bad prayoga", []byte{discTinanta, 0, 0, 0, 4, 0}, ErrInvalidTag, "pada_prayoga"},
		{"tinanta missing dhatu", []byte{discTinanta, 1, 1, 1, 1, flagHasDhatu}, ErrMissingRequiredField, "dhatu"},
		{"tinanta truncated", []byte{discTinanta, 1}, ErrMissingRequiredField, "vacana"},
		{"trailing bytes", []byte{discNone, 0}, ErrInvalidTag, "trailer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode(tc.data)
			if err == nil {
				t.Fatalf("expected error, got %s", p)
			}
			if p != nil {
				t.Errorf("expected no partial pada, got %s", p)
			}
			if !errors.Is(err, tc.kind) {
				t.Errorf("expected %v, got %v", tc.kind, err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if de.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, de.Field)
			}
		})
	}
}

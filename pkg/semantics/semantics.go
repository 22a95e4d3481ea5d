// Package semantics defines the morphological vocabulary stored in a kosha:
// the closed enumerations that describe a Sanskrit word-form and the Pada
// record that combines them.
//
// Every optional grammatical dimension is exposed as a pointer. A nil pointer
// means the dimension is unspecified, either because the form is ambiguous or
// because the source data did not record it.
package semantics

import "fmt"

// Linga is the gender of a nominal.
type Linga uint8

const (
	// Pum is the masculine gender.
	Pum Linga = iota
	// Stri is the feminine gender.
	Stri
	// Napumsaka is the neuter gender.
	Napumsaka
)

// NumLingas is the number of Linga members.
const NumLingas = 3

var lingaNames = [NumLingas]string{"pum", "stri", "napumsaka"}

func (l Linga) String() string {
	if int(l) < len(lingaNames) {
		return lingaNames[l]
	}
	return fmt.Sprintf("Linga(%d)", uint8(l))
}

// Valid reports whether l is a member of the enumeration.
func (l Linga) Valid() bool { return int(l) < NumLingas }

// ParseLinga is the inverse of Linga.String.
func ParseLinga(s string) (Linga, error) {
	v, err := parseName("linga", s, lingaNames[:])
	return Linga(v), err
}

// Vibhakti is the case of a nominal.
type Vibhakti uint8

const (
	// V1 is the nominative case.
	V1 Vibhakti = iota
	// V2 is the accusative case.
	V2
	// V3 is the instrumental case.
	V3
	// V4 is the dative case.
	V4
	// V5 is the ablative case.
	V5
	// V6 is the genitive case.
	V6
	// V7 is the locative case.
	V7
	// Sambodhana is the first vibhakti in the sense of address (vocative).
	Sambodhana
)

// NumVibhaktis is the number of Vibhakti members.
const NumVibhaktis = 8

var vibhaktiNames = [NumVibhaktis]string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "sambodhana"}

func (v Vibhakti) String() string {
	if int(v) < len(vibhaktiNames) {
		return vibhaktiNames[v]
	}
	return fmt.Sprintf("Vibhakti(%d)", uint8(v))
}

// Valid reports whether v is a member of the enumeration.
func (v Vibhakti) Valid() bool { return int(v) < NumVibhaktis }

// ParseVibhakti is the inverse of Vibhakti.String.
func ParseVibhakti(s string) (Vibhakti, error) {
	v, err := parseName("vibhakti", s, vibhaktiNames[:])
	return Vibhakti(v), err
}

// Vacana is the grammatical number of a nominal or verb.
type Vacana uint8

const (
	// Eka is the singular.
	Eka Vacana = iota
	// Dvi is the dual.
	Dvi
	// Bahu is the plural.
	Bahu
)

// NumVacanas is the number of Vacana members.
const NumVacanas = 3

var vacanaNames = [NumVacanas]string{"eka", "dvi", "bahu"}

func (v Vacana) String() string {
	if int(v) < len(vacanaNames) {
		return vacanaNames[v]
	}
	return fmt.Sprintf("Vacana(%d)", uint8(v))
}

// Valid reports whether v is a member of the enumeration.
func (v Vacana) Valid() bool { return int(v) < NumVacanas }

// ParseVacana is the inverse of Vacana.String.
func ParseVacana(s string) (Vacana, error) {
	v, err := parseName("vacana", s, vacanaNames[:])
	return Vacana(v), err
}

// Purusha is the person of a verb. The traditional order is the reverse of
// the English one: Prathama is the third person and Uttama the first.
type Purusha uint8

const (
	// Prathama is the third person.
	Prathama Purusha = iota
	// Madhyama is the second person.
	Madhyama
	// Uttama is the first person.
	Uttama
)

// NumPurushas is the number of Purusha members.
const NumPurushas = 3

var purushaNames = [NumPurushas]string{"prathama", "madhyama", "uttama"}

func (p Purusha) String() string {
	if int(p) < len(purushaNames) {
		return purushaNames[p]
	}
	return fmt.Sprintf("Purusha(%d)", uint8(p))
}

// Valid reports whether p is a member of the enumeration.
func (p Purusha) Valid() bool { return int(p) < NumPurushas }

// ParsePurusha is the inverse of Purusha.String.
func ParsePurusha(s string) (Purusha, error) {
	v, err := parseName("purusha", s, purushaNames[:])
	return Purusha(v), err
}

// Lakara is the tense-mood of a verb.
type Lakara uint8

const (
	// Lat is the present indicative.
	Lat Lakara = iota
	// Lit is the perfect.
	Lit
	// Lut is the periphrastic future.
	Lut
	// Lrt is the simple future.
	Lrt
	// Let is the Vedic subjunctive.
	Let
	// Lot is the imperative.
	Lot
	// Lan is the imperfect.
	Lan
	// VidhiLin is lin in the sense of injunction (optative).
	VidhiLin
	// AshirLin is lin in the sense of blessing (benedictive).
	AshirLin
	// Lun is the aorist.
	Lun
	// LunNoAgama is the aorist without its augment (injunctive).
	LunNoAgama
	// Lrn is the conditional.
	Lrn
)

// NumLakaras is the number of Lakara members.
const NumLakaras = 12

var lakaraNames = [NumLakaras]string{
	"lat", "lit", "lut", "lrt", "let", "lot", "lan",
	"vidhi-lin", "ashir-lin", "lun", "lun-no-agama", "lrn",
}

func (l Lakara) String() string {
	if int(l) < len(lakaraNames) {
		return lakaraNames[l]
	}
	return fmt.Sprintf("Lakara(%d)", uint8(l))
}

// Valid reports whether l is a member of the enumeration.
func (l Lakara) Valid() bool { return int(l) < NumLakaras }

// ParseLakara is the inverse of Lakara.String.
func ParseLakara(s string) (Lakara, error) {
	v, err := parseName("lakara", s, lakaraNames[:])
	return Lakara(v), err
}

// PadaPrayoga is the voice of a verb, combining the pada (parasmaipada or
// atmanepada) with whether the form is used in the active sense.
type PadaPrayoga uint8

const (
	// Parasmaipada is the active parasmaipada ending set.
	Parasmaipada PadaPrayoga = iota
	// AtmanepadaKartari is atmanepada in the active sense.
	AtmanepadaKartari
	// AtmanepadaNotKartari is atmanepada in the passive or impersonal sense.
	AtmanepadaNotKartari
)

// NumPadaPrayogas is the number of PadaPrayoga members.
const NumPadaPrayogas = 3

var prayogaNames = [NumPadaPrayogas]string{"parasmaipada", "atmanepada-kartari", "atmanepada-not-kartari"}

func (p PadaPrayoga) String() string {
	if int(p) < len(prayogaNames) {
		return prayogaNames[p]
	}
	return fmt.Sprintf("PadaPrayoga(%d)", uint8(p))
}

// Valid reports whether p is a member of the enumeration.
func (p PadaPrayoga) Valid() bool { return int(p) < NumPadaPrayogas }

// ParsePadaPrayoga is the inverse of PadaPrayoga.String.
func ParsePadaPrayoga(s string) (PadaPrayoga, error) {
	v, err := parseName("pada prayoga", s, prayogaNames[:])
	return PadaPrayoga(v), err
}

func parseName(dim, s string, names []string) (uint8, error) {
	for i, name := range names {
		if name == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", dim, s)
}

// Ptr returns a pointer to v. It is the usual way to fill an optional
// dimension:
//
//	semantics.Subanta{Linga: semantics.Ptr(semantics.Pum)}
func Ptr[T any](v T) *T {
	return &v
}

// Dhatu is a verb root, identified by its text.
type Dhatu struct {
	Text string
}

func (d Dhatu) String() string { return d.Text }

// GoString formats the root as Dhatu(text='gam').
func (d Dhatu) GoString() string { return fmt.Sprintf("Dhatu(text='%s')", d.Text) }

// Pratipadika is a nominal stem, identified by its text.
type Pratipadika struct {
	Text string
}

func (p Pratipadika) String() string { return p.Text }

// GoString formats the stem as Pratipadika(text='deva').
func (p Pratipadika) GoString() string { return fmt.Sprintf("Pratipadika(text='%s')", p.Text) }

package codec

import "github.com/ssargent/koshadb/pkg/semantics"

// Packed dimensions use one tag byte each. Tag 0 is the unspecified member;
// member m of the enumeration is stored as m+1. These pairs are the only
// place where an absent dimension and the unspecified tag meet.

const tagUnspecified uint8 = 0

func packTag[T ~uint8](v *T, members int) uint8 {
	if v == nil || int(*v) >= members {
		return tagUnspecified
	}
	return uint8(*v) + 1
}

func unpackTag[T ~uint8](field string, tag uint8, members int) (*T, error) {
	if tag == tagUnspecified {
		return nil, nil
	}
	if int(tag) > members {
		return nil, &DecodeError{Kind: ErrInvalidTag, Field: field, Tag: tag}
	}
	v := T(tag - 1)
	return &v, nil
}

func packLinga(v *semantics.Linga) uint8 { return packTag(v, semantics.NumLingas) }

func unpackLinga(tag uint8) (*semantics.Linga, error) {
	return unpackTag[semantics.Linga]("linga", tag, semantics.NumLingas)
}

func packVibhakti(v *semantics.Vibhakti) uint8 { return packTag(v, semantics.NumVibhaktis) }

func unpackVibhakti(tag uint8) (*semantics.Vibhakti, error) {
	return unpackTag[semantics.Vibhakti]("vibhakti", tag, semantics.NumVibhaktis)
}

func packVacana(v *semantics.Vacana) uint8 { return packTag(v, semantics.NumVacanas) }

func unpackVacana(tag uint8) (*semantics.Vacana, error) {
	return unpackTag[semantics.Vacana]("vacana", tag, semantics.NumVacanas)
}

func packPurusha(v *semantics.Purusha) uint8 { return packTag(v, semantics.NumPurushas) }

func unpackPurusha(tag uint8) (*semantics.Purusha, error) {
	return unpackTag[semantics.Purusha]("purusha", tag, semantics.NumPurushas)
}

func packLakara(v *semantics.Lakara) uint8 { return packTag(v, semantics.NumLakaras) }

func unpackLakara(tag uint8) (*semantics.Lakara, error) {
	return unpackTag[semantics.Lakara]("lakara", tag, semantics.NumLakaras)
}

func packPadaPrayoga(v *semantics.PadaPrayoga) uint8 { return packTag(v, semantics.NumPadaPrayogas) }

func unpackPadaPrayoga(tag uint8) (*semantics.PadaPrayoga, error) {
	return unpackTag[semantics.PadaPrayoga]("pada_prayoga", tag, semantics.NumPadaPrayogas)
}

package form

import "fmt"

// Field names one top-level field of the draft.
type Field int

// fields of the draft, in form order
const (
	FullName Field = iota
	Constituency
	Party
	Position
	DateOfBirth
	Gender
	Vision
	Photo
	Phone
	Email
	Address
	City
	State
	ZipCode
)

// EducationField names one field of an education entry.
type EducationField int

// fields of an education entry
const (
	Degree EducationField = iota
	College
	GraduationYear
)

var (
	fieldNames = map[Field]string{
		FullName:     "fullName",
		Constituency: "constituency",
		Party:        "party",
		Position:     "position",
		DateOfBirth:  "dateOfBirth",
		Gender:       "gender",
		Vision:       "vision",
		Photo:        "photo",
		Phone:        "phone",
		Email:        "email",
		Address:      "address",
		City:         "city",
		State:        "state",
		ZipCode:      "zipCode",
	}

	fieldLabels = map[Field]string{
		FullName:     "Nome completo",
		Constituency: "Distrito eleitoral",
		Party:        "Partido",
		Position:     "Cargo",
		DateOfBirth:  "Data de nascimento",
		Gender:       "Gênero (male/female)",
		Vision:       "Visão",
		Photo:        "Foto (URL)",
		Phone:        "Telefone",
		Email:        "Email",
		Address:      "Endereço",
		City:         "Cidade",
		State:        "Estado",
		ZipCode:      "CEP",
	}

	educationLabels = map[EducationField]string{
		Degree:         "Grau",
		College:        "Instituição",
		GraduationYear: "Ano de conclusão",
	}
)

// BasicFields are the fields of the first step.
var BasicFields = []Field{FullName, Constituency, Party, Position, DateOfBirth, Gender, Vision, Photo}

// ContactFields are the fields of the contact step.
var ContactFields = []Field{Phone, Email, Address, City, State, ZipCode}

// EducationFields are the fields of one education entry.
var EducationFields = []EducationField{Degree, College, GraduationYear}

// String returns the name used by the JSON payloads.
func (f Field) String() string {
	return fieldNames[f]
}

// Label returns the text shown next to the field.
func (f Field) Label() string {
	return fieldLabels[f]
}

// Label returns the text shown next to the education field.
func (f EducationField) Label() string {
	return educationLabels[f]
}

// ParseField returns the field with the given name.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("campo desconhecido [%s]", name)
}

// Value returns the current value of f on the draft.
func (c *Controller) Value(f Field) string {
	d := c.draft
	switch f {
	case FullName:
		return d.FullName
	case Constituency:
		return d.Constituency
	case Party:
		return d.Party
	case Position:
		return d.Position
	case DateOfBirth:
		return d.DateOfBirth
	case Gender:
		return string(d.Gender)
	case Vision:
		return d.Vision
	case Photo:
		return d.Photo.Location()
	case Phone:
		return d.Phone
	case Email:
		return d.Email
	case Address:
		return d.Address
	case City:
		return d.City
	case State:
		return d.State
	case ZipCode:
		return d.ZipCode
	}
	return ""
}

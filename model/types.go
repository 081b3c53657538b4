package model

// QuestionType is a closed enumeration. Each type has a fixed answer
// encoding that downstream evaluation and export rely on.
type QuestionType string

const (
	TypeShortText  QuestionType = "short_text"
	TypeLongText   QuestionType = "long_text"
	TypeEmail      QuestionType = "email"
	TypeNumeric    QuestionType = "numeric"
	TypePhone      QuestionType = "phone"
	TypeURL        QuestionType = "url"
	TypeDate       QuestionType = "date"
	TypeTime       QuestionType = "time"
	TypeDateTime   QuestionType = "datetime"
	TypeRadio      QuestionType = "radio"
	TypeCheckbox   QuestionType = "checkbox"
	TypeDropdown   QuestionType = "dropdown"
	TypeBoolean    QuestionType = "boolean"
	TypeSlider     QuestionType = "slider"
	TypeRating     QuestionType = "rating"
	TypeFileUpload QuestionType = "file_upload"
	TypeMatrix     QuestionType = "matrix"
)

var questionTypes = map[QuestionType]bool{
	TypeShortText: true, TypeLongText: true, TypeEmail: true,
	TypeNumeric: true, TypePhone: true, TypeURL: true,
	TypeDate: true, TypeTime: true, TypeDateTime: true,
	TypeRadio: true, TypeCheckbox: true, TypeDropdown: true,
	TypeBoolean: true, TypeSlider: true, TypeRating: true,
	TypeFileUpload: true, TypeMatrix: true,
}

func (t QuestionType) Valid() bool {
	return questionTypes[t]
}

// HasOptions reports whether the type renders its Options list.
func (t QuestionType) HasOptions() bool {
	switch t {
	case TypeRadio, TypeCheckbox, TypeDropdown, TypeMatrix:
		return true
	}
	return false
}

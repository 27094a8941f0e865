// Package validation checks form input and turns failures into the Spanish
// messages shown next to the forms.
package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

var (
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Validator wraps go-playground/validator with the custom rules and the
// Spanish translator
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("correo", func(fl validator.FieldLevel) bool {
		return emailRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return len(PasswordRequirements(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("minage", func(fl validator.FieldLevel) bool {
		age, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		min, _ := strconv.Atoi(fl.Param())
		return err == nil && age >= min
	})
	_ = v.RegisterValidation("maxage", func(fl validator.FieldLevel) bool {
		age, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		max, _ := strconv.Atoi(fl.Param())
		return err != nil || age <= max
	})
	v.RegisterStructValidation(correctAnswerIsOption, ChallengeForm{})

	spanish := es.New()
	trans, _ := ut.New(spanish, spanish).GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{v: v, trans: trans}
}

func correctAnswerIsOption(sl validator.StructLevel) {
	f := sl.Current().Interface().(ChallengeForm)
	if f.CorrectAnswer == "" {
		return
	}
	for _, opt := range []string{f.AnswerOne, f.AnswerTwo, f.AnswerThree, f.AnswerFour} {
		if opt != "" && opt == f.CorrectAnswer {
			return
		}
	}
	sl.ReportError(f.CorrectAnswer, "respuesta_correcta", "CorrectAnswer", "opcion", "")
}

// rule is one (field, tag) failure with its message; a form's rules are
// listed in the order the page reports them
type rule struct {
	field, tag, message string
}

var registerRules = []rule{
	{"correo", "required", "Por favor ingresa tu correo electrónico"},
	{"contrasena", "required", "Por favor ingresa una contraseña"},
	{"confirmar_contrasena", "required", "Por favor confirma tu contraseña"},
	{"nombre_perfil", "required", "Por favor ingresa tu nombre"},
	{"edad", "required", "Por favor ingresa tu edad"},
	{"correo", "correo", "Por favor ingresa un correo electrónico válido"},
	{"edad", "minage", "Debes tener al menos 14 años para registrarte"},
	{"edad", "maxage", "Por favor ingresa una edad válida"},
	{"contrasena", "strongpassword", ""},
	{"confirmar_contrasena", "eqfield", "Las contraseñas no coinciden"},
}

var loginRules = []rule{
	{"correo", "required", "Por favor ingresa tu correo electrónico"},
	{"contrasena", "required", "Por favor ingresa tu contraseña"},
	{"correo", "correo", "Por favor ingresa un correo electrónico válido"},
}

var profileRules = []rule{
	{"nombre_perfil", "required", "Por favor ingresa tu nombre"},
	{"correo", "required", "Por favor ingresa tu correo electrónico"},
	{"edad", "required", "Por favor ingresa tu edad"},
	{"correo", "correo", "Por favor ingresa un correo electrónico válido"},
	{"edad", "number", "Por favor ingresa una edad válida"},
	{"edad", "minage", "Debes tener al menos 14 años"},
	{"edad", "maxage", "Por favor ingresa una edad válida"},
}

// Register returns the first failure message of the registration form, or ""
func (v *Validator) Register(f RegisterForm) string {
	f.Normalize()
	msg := v.first(f, registerRules)
	if msg == "" && v.failed(f, "contrasena", "strongpassword") {
		return PasswordMessage(f.Password)
	}
	return msg
}

func (v *Validator) Login(f LoginForm) string {
	f.Normalize()
	return v.first(f, loginRules)
}

func (v *Validator) Profile(f ProfileForm) string {
	f.Normalize()
	return v.first(f, profileRules)
}

// Struct validates any form and returns the translated messages keyed by
// field name. Nil means valid.
func (v *Validator) Struct(s interface{}) map[string]string {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		if fe.Tag() == "opcion" {
			out[fe.Field()] = "La respuesta correcta debe ser una de las opciones"
			continue
		}
		out[fe.Field()] = fe.Translate(v.trans)
	}
	return out
}

// first walks rules in order and returns the message of the first one that
// failed. A rule with an empty message stops the walk without a message.
func (v *Validator) first(s interface{}, rules []rule) string {
	failed := v.failures(s)
	for _, r := range rules {
		if failed[r.field+"."+r.tag] {
			return r.message
		}
	}
	return ""
}

func (v *Validator) failed(s interface{}, field, tag string) bool {
	return v.failures(s)[field+"."+tag]
}

func (v *Validator) failures(s interface{}) map[string]bool {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]bool, len(errs))
	for _, fe := range errs {
		out[fe.Field()+"."+fe.Tag()] = true
	}
	return out
}

// PasswordRequirements lists the unmet password rules, in display order
func PasswordRequirements(pw string) []string {
	var missing []string
	if len(pw) < 8 {
		missing = append(missing, "Al menos 8 caracteres")
	}
	if !upperRegex.MatchString(pw) {
		missing = append(missing, "Al menos una letra mayúscula")
	}
	if !lowerRegex.MatchString(pw) {
		missing = append(missing, "Al menos una letra minúscula")
	}
	if !digitRegex.MatchString(pw) {
		missing = append(missing, "Al menos un número")
	}
	if !specialRegex.MatchString(pw) {
		missing = append(missing, "Al menos un carácter especial (!@#$%^&*)")
	}
	return missing
}

// PasswordMessage renders the requirement list, or "" for a strong password
func PasswordMessage(pw string) string {
	missing := PasswordRequirements(pw)
	if len(missing) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("La contraseña debe cumplir los siguientes requisitos:\n")
	for _, m := range missing {
		b.WriteString("- " + m + "\n")
	}
	return b.String()
}

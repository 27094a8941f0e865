package validation

import "strings"

// RegisterForm is the registration page input
type RegisterForm struct {
	Email    string `form:"correo" validate:"required,correo"`
	Password string `form:"contrasena" validate:"required,strongpassword"`
	Confirm  string `form:"confirmar_contrasena" validate:"required,eqfield=Password"`
	Name     string `form:"nombre_perfil" validate:"required"`
	Age      string `form:"edad" validate:"required,minage=14,maxage=120"`
}

// Normalize trims the fields that are compared trimmed
func (f *RegisterForm) Normalize() {
	f.Email = strings.TrimSpace(f.Email)
	f.Name = strings.TrimSpace(f.Name)
	f.Age = strings.TrimSpace(f.Age)
}

// LoginForm is the login page input
type LoginForm struct {
	Email    string `form:"correo" validate:"required,correo"`
	Password string `form:"contrasena" validate:"required"`
}

func (f *LoginForm) Normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

// ProfileForm is the editable part of the profile page
type ProfileForm struct {
	Email string `form:"correo" validate:"required,correo"`
	Name  string `form:"nombre_perfil" validate:"required"`
	Age   string `form:"edad" validate:"required,number,minage=14,maxage=120"`
}

func (f *ProfileForm) Normalize() {
	f.Email = strings.TrimSpace(f.Email)
	f.Name = strings.TrimSpace(f.Name)
	f.Age = strings.TrimSpace(f.Age)
}

// TopicForm is the admin topic editor
type TopicForm struct {
	Name        string `form:"nombre" validate:"required,max=100"`
	Description string `form:"descripcion" validate:"required"`
	Image       string `form:"img_tema" validate:"omitempty,max=255"`
	Information string `form:"informacion_tema"`
}

// ChallengeForm is the admin challenge editor
type ChallengeForm struct {
	TopicID       int64  `form:"id_tema" validate:"required,gt=0"`
	Name          string `form:"nombre_reto" validate:"required,max=100"`
	Description   string `form:"descripcion" validate:"required"`
	Theory        string `form:"teoria"`
	Question      string `form:"pregunta" validate:"required"`
	AnswerOne     string `form:"respuesta_uno" validate:"required"`
	AnswerTwo     string `form:"respuesta_dos" validate:"required"`
	AnswerThree   string `form:"respuesta_tres"`
	AnswerFour    string `form:"respuesta_cuatro"`
	CorrectAnswer string `form:"respuesta_correcta" validate:"required"`
	Cost          int    `form:"costo_monedas" validate:"gte=0"`
	Reward        int    `form:"recompensa_monedas" validate:"gte=0"`
	Image         string `form:"img_reto" validate:"omitempty,max=255"`
}

// TipForm is the admin tip editor
type TipForm struct {
	Name        string `form:"nombre" validate:"required,max=100"`
	Description string `form:"descripcion" validate:"required"`
}

// UserForm is the admin user editor; only email and role are editable
type UserForm struct {
	Email string `form:"correo" validate:"required,correo"`
	Role  string `form:"rol" validate:"required,oneof=Administrador Usuario"`
}

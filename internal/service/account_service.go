package service

import (
	"context"
	"errors"
	"io"
	"strconv"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/session"
	"edufinanzas/internal/validation"
)

// Registration and profile messages
const (
	MsgEmailTaken      = "Este correo electrónico ya está registrado"
	MsgInvalidData     = "Datos inválidos. Por favor, verifica los campos."
	MsgRegisterFailed  = "Ocurrió un error al crear la cuenta. Por favor, intenta nuevamente."
	MsgRegistered      = "Cuenta creada exitosamente. Ahora puedes iniciar sesión."
	MsgProfileUpdated  = "Perfil actualizado exitosamente."
	MsgProfileNotSaved = "No se pudo actualizar el perfil. Intenta nuevamente."
)

// FormError is a failure whose message can be shown on the form as is
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FormError) Unwrap() error {
	return e.Err
}

// Mailer sends the welcome email
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// AccountService registers users and edits profiles
type AccountService struct {
	client    *api.Client
	validator *validation.Validator
	mailer    Mailer
	log       *logger.Logger
}

func NewAccountService(client *api.Client, v *validation.Validator, mailer Mailer, log *logger.Logger) *AccountService {
	return &AccountService{
		client:    client,
		validator: v,
		mailer:    mailer,
		log:       log.With("service", "AccountService"),
	}
}

// Register validates the form and creates the account with the learner role
// and an empty purse
func (s *AccountService) Register(ctx context.Context, form validation.RegisterForm) (*models.User, error) {
	if msg := s.validator.Register(form); msg != "" {
		return nil, &FormError{Message: msg}
	}
	form.Normalize()
	age, _ := strconv.Atoi(form.Age)

	user, err := s.client.Register(ctx, models.NewUserRequest{
		Email:    form.Email,
		Password: form.Password,
		Role:     models.RoleUser,
		Profile:  models.NewProfile{Name: form.Name, Age: age, Coins: 0},
	})
	if err != nil {
		s.log.Info("registration rejected", "email", form.Email, "status", api.StatusOf(err))
		return nil, &FormError{Message: registerMessage(err), Err: err}
	}

	s.log.Info("user registered", "user_id", user.ID)
	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(ctx, form.Email, form.Name); err != nil {
			s.log.Warn("welcome email failed", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

func registerMessage(err error) string {
	apiErr, ok := api.AsError(err)
	if !ok || apiErr.StatusCode != 400 {
		return MsgRegisterFailed
	}
	if api.IsDuplicateEmail(err) {
		return MsgEmailTaken
	}
	if msg := apiErr.Message("correo"); msg != "" {
		return msg
	}
	return MsgInvalidData
}

// Photo is an uploaded profile picture
type Photo struct {
	Reader   io.Reader
	Filename string
}

// UpdateProfile saves name, age and optional photo, then the email when it
// changed. The session record is updated only after both writes succeed.
func (s *AccountService) UpdateProfile(ctx context.Context, h *session.Holder, form validation.ProfileForm, photo *Photo) error {
	if msg := s.validator.Profile(form); msg != "" {
		return &FormError{Message: msg}
	}
	form.Normalize()

	account := h.Account()
	if account == nil || account.Profile == nil {
		return &FormError{Message: MsgProfileNotSaved, Err: ErrNoProfile}
	}
	age, _ := strconv.Atoi(form.Age)
	c := s.client.WithToken(h.Token())

	patch := api.ProfilePatch{Name: &form.Name, Age: &age}
	if photo != nil {
		patch.Photo = photo.Reader
		patch.PhotoName = photo.Filename
	}
	saved, err := c.PatchProfile(ctx, account.Profile.ID, patch)
	if err != nil {
		s.log.Warn("profile update failed", "profile_id", account.Profile.ID, "error", err)
		return &FormError{Message: MsgProfileNotSaved, Err: err}
	}

	if form.Email != account.Email {
		if err := s.changeEmail(ctx, c, account.ID, form.Email); err != nil {
			s.log.Warn("email update failed", "user_id", account.ID, "error", err)
			return &FormError{Message: MsgProfileNotSaved, Err: err}
		}
	}

	profile := *account.Profile
	profile.Name = form.Name
	profile.Age = age
	if saved != nil && saved.Photo != "" {
		profile.Photo = saved.Photo
	}
	if err := h.UpdateUser(ctx, session.AccountUpdate{Email: &form.Email, Profile: &profile}); err != nil {
		return &FormError{Message: MsgProfileNotSaved, Err: err}
	}
	return nil
}

// changeEmail replaces the user record with the new address, keeping the
// stored password and role
func (s *AccountService) changeEmail(ctx context.Context, c *api.Client, userID int64, email string) error {
	current, err := c.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	_, err = c.UpdateUser(ctx, userID, models.User{
		Email:    email,
		Password: current.Password,
		Role:     current.Role,
	})
	return err
}

// FormMessage returns the user-facing text of err, or fallback
func FormMessage(err error, fallback string) string {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return fallback
}

package handlers

import (
	"edufinanzas/internal/models"
	"edufinanzas/internal/progress"
	"edufinanzas/internal/service"
	"edufinanzas/internal/validation"
)

// Layout is the data every page header needs
type Layout struct {
	Title         string
	CSRFToken     string
	Authenticated bool
	IsAdmin       bool
	DisplayName   string
	Coins         int
}

type HomeViewData struct {
	Layout
	Topics []models.Topic
	Tips   []models.Tip
	Error  string
}

type LoginViewData struct {
	Layout
	Error   string
	Success string
	Email   string
}

type RegisterViewData struct {
	Layout
	Error        string
	Email        string
	Name         string
	Age          string
	Requirements []string
}

type TopicsViewData struct {
	Layout
	Topics    []progress.TopicView
	Threshold int
	Error     string
}

type TopicChallengesViewData struct {
	Layout
	Topic      models.Topic
	Progress   progress.TopicView
	Challenges []progress.ChallengeView
	Error      string
}

type ChallengeViewData struct {
	Layout
	Challenge *models.Challenge
	Selected  string
	Result    string
	Correct   bool
	Error     string
}

type ProfileViewData struct {
	Layout
	Account  *models.Account
	Form     validation.ProfileForm
	PhotoURL string
	Error    string
	Success  string
}

type AdminDashboardViewData struct {
	Layout
	Dashboard *service.Dashboard
	Error     string
}

type AdminTopicsViewData struct {
	Layout
	Topics  []models.Topic
	Error   string
	Success string
}

type AdminTopicFormViewData struct {
	Layout
	ID     int64
	Form   validation.TopicForm
	Errors map[string]string
	Error  string
}

type AdminChallengesViewData struct {
	Layout
	Challenges []models.Challenge
	Topics     []models.Topic
	TopicID    int64
	TopicNames map[int64]string
	Error      string
	Success    string
}

type AdminChallengeFormViewData struct {
	Layout
	ID     int64
	Form   validation.ChallengeForm
	Topics []models.Topic
	Errors map[string]string
	Error  string
}

type AdminTipsViewData struct {
	Layout
	Tips    []models.Tip
	Error   string
	Success string
}

type AdminTipFormViewData struct {
	Layout
	ID     int64
	Form   validation.TipForm
	Errors map[string]string
	Error  string
}

type AdminUsersViewData struct {
	Layout
	Users   []models.User
	Error   string
	Success string
}

type AdminUserFormViewData struct {
	Layout
	ID     int64
	Form   validation.UserForm
	Roles  []string
	Errors map[string]string
	Error  string
}
